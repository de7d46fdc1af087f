package league

import (
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func played(id, date, home, away string, hg, ag int) Match {
	return Match{ID: id, Date: day(date), HomeTeam: home, AwayTeam: away, HomeGoals: hg, AwayGoals: ag}
}

func goal(team string, period, minute int) GoalEvent {
	return GoalEvent{Team: team, Period: period, Minute: minute}
}

func ids(matches []Match) []string {
	out := []string{}
	for _, m := range matches {
		out = append(out, m.ID)
	}
	return out
}

// season is a small round robin used across tests
func season() []Match {
	m1 := played("m1", "2025-08-01", "Atlas", "Cruz Azul", 3, 1)
	m1.HomeLineup = Lineup{Starters: []string{"Quiñones", "Rocha", "Aguirre"}, Coach: "Gonzalo Pineda"}
	m1.AwayLineup = Lineup{Starters: []string{"Rotondi", "Piovi"}, Coach: "Vicente Sánchez"}
	m1.Goals = []GoalEvent{goal("Atlas", 1, 12), goal("Cruz Azul", 1, 30), goal("Atlas", 2, 55), goal("Atlas", 2, 80)}

	m2 := played("m2", "2025-08-08", "Cruz Azul", "Atlas", 0, 2)
	m2.HomeLineup = Lineup{Starters: []string{"Rotondi", "Piovi"}, Coach: "Vicente Sánchez"}
	m2.AwayLineup = Lineup{Starters: []string{"Rocha", "Aguirre"}, Coach: "Gonzalo Pineda"}
	m2.Goals = []GoalEvent{goal("Atlas", 1, 20), goal("Atlas", 2, 70)}

	m3 := played("m3", "2025-08-15", "Toluca", "Atlas", 2, 2)
	m3.HomeLineup = Lineup{Starters: []string{"Paulinho", "Gallardo"}, Coach: "Antonio Mohamed"}
	m3.AwayLineup = Lineup{Starters: []string{"Quiñones", "Rocha"}, Coach: "Diego Cocca"}
	m3.Goals = []GoalEvent{goal("Toluca", 1, 5), goal("Toluca", 1, 25), goal("Atlas", 2, 60), goal("Atlas", 2, 88)}
	m3.Cards = []CardEvent{{Team: "Toluca", Player: "Gallardo", Type: CardSecondYellow, Minute: 75}}

	m4 := played("m4", "2025-08-22", "Toluca", "Cruz Azul", 0, 0)
	m4.HomeLineup = Lineup{Starters: []string{"Paulinho"}, Coach: "Antonio Mohamed"}
	m4.AwayLineup = Lineup{Starters: []string{"Rotondi"}, Coach: "Vicente Sánchez"}

	return []Match{m1, m2, m3, m4}
}
