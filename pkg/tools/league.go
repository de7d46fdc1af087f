package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/protocol"
	"github.com/richard-senior/matchboard/pkg/render"
	"github.com/richard-senior/matchboard/pkg/snapshot"
)

// Handler runs one tool call
type Handler func(ctx context.Context, params any) (any, error)

// Entry pairs a tool definition with its handler
type Entry struct {
	Tool   protocol.Tool
	Handle Handler
}

// League exposes the league queries as tools. Every call reads the
// snapshot current at the time of the call.
type League struct {
	state *snapshot.State
	title string
}

func NewLeague(state *snapshot.State, title string) *League {
	return &League{state: state, title: title}
}

// Entries lists every tool
func (l *League) Entries() []Entry {
	return []Entry{
		{StandingsTool(), l.HandleStandings},
		{TeamSummaryTool(), l.HandleTeamSummary},
		{TeamMatchesTool(), l.HandleTeamMatches},
		{MatchesTool(), l.HandleMatches},
		{TeamSquadTool(), l.HandleTeamSquad},
		{LeaderboardTool(), l.HandleLeaderboard},
		{LeagueReportTool(), l.HandleLeagueReport},
		{DataStatusTool(), l.HandleDataStatus},
	}
}

var teamProperty = protocol.ToolProperty{
	Type:        "string",
	Description: "Team name. Close spellings are matched to the nearest known team, e.g. 'cruz azul' or 'Pumas'.",
}

func StandingsTool() protocol.Tool {
	return protocol.Tool{
		Name: "standings",
		Description: `
		The league table. With filters, each team's line only counts the matches that pass
		the filter from that team's point of view, e.g. venue=home gives the home table and
		top_n=6 gives each team's record against the current top six.
		`,
		InputSchema: schema(nil, nil, standingsKeys),
	}
}

func (l *League) HandleStandings(ctx context.Context, params any) (any, error) {
	_, spec, err := splitArgs(params, nil, standingsKeys)
	if err != nil {
		return nil, err
	}
	rows, err := l.state.Current().Standings(spec)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("## %s standings (%s)\n\n%s", l.title, describe(params, standingsKeys), render.StandingsTable(rows))
	return protocol.NewToolResult(text, map[string]any{"filter": spec, "rows": rows}), nil
}

func TeamSummaryTool() protocol.Tool {
	return protocol.Tool{
		Name:        "team_summary",
		Description: "One team's played, won, drawn, lost, goals and points over the matches that pass the filter",
		InputSchema: schema(map[string]protocol.ToolProperty{"team": teamProperty}, []string{"team"}, teamKeys),
	}
}

func (l *League) HandleTeamSummary(ctx context.Context, params any) (any, error) {
	args, spec, err := splitArgs(params, []string{"team"}, teamKeys)
	if err != nil {
		return nil, err
	}
	snap, team, res, err := l.resolve(args)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	row, err := snap.TeamSummary(team, spec)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("## %s (%s)\n\n%s", team, describe(params, teamKeys), render.StandingsTable([]league.StandingRow{row}))
	return protocol.NewToolResult(text, row), nil
}

func TeamMatchesTool() protocol.Tool {
	return protocol.Tool{
		Name:        "team_matches",
		Description: "One team's results that pass the filter, most recent first",
		InputSchema: schema(map[string]protocol.ToolProperty{
			"team":  teamProperty,
			"limit": {Type: "integer", Description: "Most results to return (default: all)", Minimum: &one},
		}, []string{"team"}, teamKeys),
	}
}

func (l *League) HandleTeamMatches(ctx context.Context, params any) (any, error) {
	args, spec, err := splitArgs(params, []string{"team", "limit"}, teamKeys)
	if err != nil {
		return nil, err
	}
	limit, err := args.positive("limit", 0)
	if err != nil {
		return nil, err
	}
	snap, team, res, err := l.resolve(args)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	results, err := snap.TeamResults(team, spec)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	text := fmt.Sprintf("## %s results (%s)\n\n", team, describe(params, teamKeys))
	if len(results) == 0 {
		text += "No matches pass the filter."
	} else {
		text += render.ResultsTable(results)
	}
	return protocol.NewToolResult(text, results), nil
}

func MatchesTool() protocol.Tool {
	return protocol.Tool{
		Name:        "matches",
		Description: "Every played match of the league, newest first, as date, home team, score and away team. Optionally only one team's matches.",
		InputSchema: schema(map[string]protocol.ToolProperty{
			"team":  {Type: "string", Description: "Only list this team's matches. Close spellings are matched to the nearest known team."},
			"limit": {Type: "integer", Description: "Most matches to return (default: all)", Minimum: &one},
		}, nil, scopeKeys),
	}
}

func (l *League) HandleMatches(ctx context.Context, params any) (any, error) {
	args, spec, err := splitArgs(params, []string{"team", "limit"}, scopeKeys)
	if err != nil {
		return nil, err
	}
	limit, err := args.positive("limit", 0)
	if err != nil {
		return nil, err
	}
	name, err := args.str("team")
	if err != nil {
		return nil, err
	}

	snap, team, heading := l.state.Current(), "", l.title
	if name != "" {
		var res *protocol.ToolResult
		snap, team, res, err = l.resolve(args)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
		heading = team
	}

	lines := snap.MatchList(team, spec)
	if limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}
	text := fmt.Sprintf("## %s matches (%s)\n\n", heading, describe(params, scopeKeys))
	if len(lines) == 0 {
		text += "No matches pass the filter."
	} else {
		text += render.MatchListTable(lines)
	}
	return protocol.NewToolResult(text, lines), nil
}

func TeamSquadTool() protocol.Tool {
	return protocol.Tool{
		Name:        "team_squad",
		Description: "Every player who started at least once for a team, and every coach it fielded. Use it to find names for the player and coach filters.",
		InputSchema: schema(map[string]protocol.ToolProperty{"team": teamProperty}, []string{"team"}, nil),
	}
}

type squad struct {
	Team    string   `json:"team"`
	Players []string `json:"players"`
	Coaches []string `json:"coaches"`
}

func (l *League) HandleTeamSquad(ctx context.Context, params any) (any, error) {
	args, _, err := splitArgs(params, []string{"team"}, nil)
	if err != nil {
		return nil, err
	}
	snap, team, res, err := l.resolve(args)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	s := squad{Team: team, Players: league.Players(snap.Matches, team), Coaches: league.Coaches(snap.Matches, team)}
	text := fmt.Sprintf("## %s\n\nCoaches: %s\n\nStarters: %s", team, strings.Join(s.Coaches, ", "), strings.Join(s.Players, ", "))
	return protocol.NewToolResult(text, s), nil
}

func LeaderboardTool() protocol.Tool {
	metrics := make([]string, 0, len(league.Metrics))
	for _, m := range league.Metrics {
		metrics = append(metrics, string(m))
	}
	return protocol.Tool{
		Name:        "leaderboard",
		Description: "Ranks teams by one statistic, best first. best_defense ranks by fewest goals conceded.",
		InputSchema: schema(map[string]protocol.ToolProperty{
			"metric": {Type: "string", Description: "Statistic to rank by", Enum: metrics},
			"n":      {Type: "integer", Description: "How many teams to list (default: 5)", Minimum: &one},
		}, []string{"metric"}, scopeKeys),
	}
}

func (l *League) HandleLeaderboard(ctx context.Context, params any) (any, error) {
	args, spec, err := splitArgs(params, []string{"metric", "n"}, scopeKeys)
	if err != nil {
		return nil, err
	}
	name, err := args.required("metric")
	if err != nil {
		return nil, err
	}
	metric, err := league.ParseMetric(name)
	if err != nil {
		return nil, err
	}
	n, err := args.positive("n", render.LeadersShown)
	if err != nil {
		return nil, err
	}
	entries, err := l.state.Current().Leaderboard(metric, n, spec)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("## %s (%s)\n\n%s", metric.Label(), describe(params, scopeKeys), render.LeaderboardTable(metric, entries))
	return protocol.NewToolResult(text, map[string]any{"metric": metric, "entries": entries}), nil
}

func LeagueReportTool() protocol.Tool {
	return protocol.Tool{
		Name: "league_report",
		Description: `
		A full report as markdown: data freshness, the (optionally filtered) table,
		competition totals and the top five of every leaderboard.
		Use it when the user wants an overview rather than one number.
		`,
		InputSchema: schema(nil, nil, standingsKeys),
	}
}

func (l *League) HandleLeagueReport(ctx context.Context, params any) (any, error) {
	_, spec, err := splitArgs(params, nil, standingsKeys)
	if err != nil {
		return nil, err
	}
	page, err := render.NewPage(l.state.Current(), spec, l.title, l.state.LastUpdateInfo().Message)
	if err != nil {
		return nil, err
	}
	html, err := render.PageHTML(page)
	if err != nil {
		return nil, err
	}
	md, err := render.ReportMarkdown(html)
	if err != nil {
		return nil, err
	}
	return protocol.NewToolResult(md, nil), nil
}

func DataStatusTool() protocol.Tool {
	return protocol.Tool{
		Name:        "data_status",
		Description: "How fresh the match data is. With refresh=true, downloads new matches first if the data is out of date; force=true downloads regardless.",
		InputSchema: schema(map[string]protocol.ToolProperty{
			"refresh": {Type: "boolean", Description: "Refresh the data if it is older than the configured maximum age"},
			"force":   {Type: "boolean", Description: "Refresh even if the data is fresh"},
		}, nil, nil),
	}
}

func (l *League) HandleDataStatus(ctx context.Context, params any) (any, error) {
	args, _, err := splitArgs(params, []string{"refresh", "force"}, nil)
	if err != nil {
		return nil, err
	}
	refresh, err := args.flag("refresh")
	if err != nil {
		return nil, err
	}
	force, err := args.flag("force")
	if err != nil {
		return nil, err
	}
	if !refresh && !force {
		info := l.state.LastUpdateInfo()
		return protocol.NewToolResult(info.Message, info), nil
	}

	res, err := l.state.AutoUpdate(ctx, force)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("%s (%s, %d new matches)", res.Info.Message, res.Reason, res.NewMatches)
	return protocol.NewToolResult(text, res), nil
}

// resolve finds the team argument in the current snapshot. An unknown team
// is answered with a result listing the known teams rather than an error.
func (l *League) resolve(args arguments) (*snapshot.Snapshot, string, *protocol.ToolResult, error) {
	name, err := args.required("team")
	if err != nil {
		return nil, "", nil, err
	}
	snap := l.state.Current()
	team, ok := snap.ResolveTeam(name)
	if !ok {
		logger.Info("No team matches", name)
		text := fmt.Sprintf("No team matches %q. Known teams: %s", name, strings.Join(snap.Teams, ", "))
		return nil, "", protocol.NewToolResult(text, map[string]any{"team": name, "found": false}), nil
	}
	return snap, team, nil, nil
}
