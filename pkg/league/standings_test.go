package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateTwoWins(t *testing.T) {
	matches := []Match{
		played("1", "2025-08-01", "A", "B", 3, 1),
		played("2", "2025-08-08", "B", "A", 0, 2),
	}
	row := Aggregate(matches, "A")

	assert.Equal(t, StandingRow{
		Team: "A", Played: 2, Wins: 2, Draws: 0, Losses: 0,
		GoalsFor: 5, GoalsAgainst: 1, GoalDiff: 4, Points: 6, PointsPct: 100.00,
	}, row)

	b := Aggregate(matches, "B")
	assert.Equal(t, 2, b.Losses)
	assert.Equal(t, -4, b.GoalDiff)
	assert.Equal(t, 0.0, b.PointsPct)
}

func TestAggregateZeroGames(t *testing.T) {
	row := Aggregate(nil, "A")
	assert.Equal(t, 0, row.Played)
	assert.Equal(t, 0.0, row.PointsPct)

	row = Aggregate(season(), "Nobody")
	assert.Equal(t, 0, row.Played)
	assert.Equal(t, 0.0, row.PointsPct)
}

func TestPointsPercentageRounding(t *testing.T) {
	// 4 of 9 available points
	assert.Equal(t, 44.44, PointsPercentage(4, 3, StandardPoints))
	// 2 of 3
	assert.Equal(t, 66.67, PointsPercentage(2, 1, StandardPoints))
	assert.Equal(t, 0.0, PointsPercentage(0, 0, StandardPoints))
	assert.Equal(t, 0.0, PointsPercentage(3, 1, PointsRule{}))
}

func TestAggregatorUsesPointsRule(t *testing.T) {
	twoForAWin := NewAggregator(PointsRule{Win: 2, Draw: 1, Loss: 0})
	row := twoForAWin.Aggregate(season(), "Atlas")

	assert.Equal(t, 3, row.Played)
	assert.Equal(t, 2, row.Wins)
	assert.Equal(t, 1, row.Draws)
	assert.Equal(t, 5, row.Points)
	assert.Equal(t, 83.33, row.PointsPct)
}

func TestStandings(t *testing.T) {
	table := NewAggregator(StandardPoints).Standings(season())
	require.Len(t, table, 3)

	assert.Equal(t, "Atlas", table[0].Team)
	assert.Equal(t, 1, table[0].Position)
	assert.Equal(t, 7, table[0].Points)
	assert.Equal(t, 7, table[0].GoalsFor)
	assert.Equal(t, 3, table[0].GoalsAgainst)

	assert.Equal(t, "Toluca", table[1].Team)
	assert.Equal(t, 2, table[1].Points)
	assert.Equal(t, "Cruz Azul", table[2].Team)
	assert.Equal(t, 3, table[2].Position)

	assert.Equal(t, Ranking{"Atlas": 1, "Toluca": 2, "Cruz Azul": 3}, RankingFrom(table))
}

func TestSortTableTieBreaks(t *testing.T) {
	table := []StandingRow{
		{Team: "Zeta", Points: 6, GoalDiff: 2, GoalsFor: 4},
		{Team: "Beta", Points: 6, GoalDiff: 2, GoalsFor: 5},
		{Team: "Alpha", Points: 6, GoalDiff: 2, GoalsFor: 4},
		{Team: "Gamma", Points: 6, GoalDiff: 3, GoalsFor: 1},
		{Team: "Omega", Points: 7},
	}
	SortTable(table)

	var order []string
	for i, row := range table {
		order = append(order, row.Team)
		assert.Equal(t, i+1, row.Position)
	}
	assert.Equal(t, []string{"Omega", "Gamma", "Beta", "Alpha", "Zeta"}, order)
}

func TestFilteredStandings(t *testing.T) {
	agg := NewAggregator(StandardPoints)
	matches := season()

	home, err := agg.FilteredStandings(matches, FilterSpec{Venue: VenueHome}, nil)
	require.NoError(t, err)
	require.Len(t, home, 3)

	byTeam := map[string]StandingRow{}
	for _, row := range home {
		byTeam[row.Team] = row
	}
	assert.Equal(t, 1, byTeam["Atlas"].Played)
	assert.Equal(t, 3, byTeam["Atlas"].Points)
	assert.Equal(t, 2, byTeam["Toluca"].Played)
	assert.Equal(t, 1, byTeam["Cruz Azul"].Played)
	assert.Equal(t, 0, byTeam["Cruz Azul"].Points)

	// opponent rank needs a ranking
	_, err = agg.FilteredStandings(matches, FilterSpec{OpponentRank: &RankRange{Min: 1, Max: 1}}, nil)
	assert.ErrorIs(t, err, ErrMissingRankingData)

	ranking := RankingFrom(agg.Standings(matches))
	vsLeader, err := agg.FilteredStandings(matches, FilterSpec{OpponentRank: &RankRange{Min: 1, Max: 1}}, ranking)
	require.NoError(t, err)
	for _, row := range vsLeader {
		if row.Team == "Atlas" {
			assert.Equal(t, 0, row.Played)
			assert.Equal(t, 0.0, row.PointsPct)
		}
	}
}

func TestEmptySpecStandingsMatchFullTable(t *testing.T) {
	agg := NewAggregator(StandardPoints)
	filtered, err := agg.FilteredStandings(season(), FilterSpec{}, nil)
	require.NoError(t, err)
	assert.Equal(t, agg.Standings(season()), filtered)
}
