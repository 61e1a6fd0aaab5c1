package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/lherron/hofmerge/internal/archive"
	"github.com/lherron/hofmerge/internal/records"
	"github.com/lherron/hofmerge/internal/render"
)

var gamesCmd = &cobra.Command{
	Use:   "games <archive>",
	Short: "List the games recorded in an archive",
	Long: `Lists every game in an archive with the attributes used to match games
during a merge. With --counts, the number of players, objects and data point
values owned by each game is shown as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runGames,
}

var (
	gamesOutput string
	gamesCounts bool
)

func init() {
	rootCmd.AddCommand(gamesCmd)
	gamesCmd.Flags().StringVarP(&gamesOutput, "output", "o", "table", "Output format: table, tsv, json, yaml")
	gamesCmd.Flags().BoolVar(&gamesCounts, "counts", false, "Include dependent row counts")
}

type gameListing struct {
	ID            records.GameID           `json:"id" yaml:"id"`
	Ruleset       string                   `json:"ruleset" yaml:"ruleset"`
	GameMode      int64                    `json:"game_mode" yaml:"game_mode"`
	TurnCount     int64                    `json:"turn_count" yaml:"turn_count"`
	GameSpeedType string                   `json:"game_speed" yaml:"game_speed"`
	MapSizeType   string                   `json:"map_size" yaml:"map_size"`
	Map           string                   `json:"map" yaml:"map"`
	StartEraType  string                   `json:"start_era" yaml:"start_era"`
	StartTurn     int64                    `json:"start_turn" yaml:"start_turn"`
	VictorTeamID  *int64                   `json:"victor_team_id" yaml:"victor_team_id"`
	VictoryType   *string                  `json:"victory_type" yaml:"victory_type"`
	LastPlayed    int64                    `json:"last_played" yaml:"last_played"`
	Counts        *records.DependentCounts `json:"counts,omitempty" yaml:"counts,omitempty"`
}

func newGameListing(g records.Game) gameListing {
	l := gameListing{
		ID:            g.ID,
		Ruleset:       g.Ruleset,
		GameMode:      g.GameMode,
		TurnCount:     g.TurnCount,
		GameSpeedType: g.GameSpeedType,
		MapSizeType:   g.MapSizeType,
		Map:           g.Map,
		StartEraType:  g.StartEraType,
		StartTurn:     g.StartTurn,
		LastPlayed:    g.LastPlayed,
	}
	if g.VictorTeamID.Valid {
		v := g.VictorTeamID.Int64
		l.VictorTeamID = &v
	}
	if g.VictoryType.Valid {
		v := g.VictoryType.String
		l.VictoryType = &v
	}
	return l
}

func runGames(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(gamesOutput)
	if err != nil {
		return err
	}

	a, err := archive.OpenReadOnly(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.VerifySchema(cmd.Context()); err != nil {
		return err
	}

	reader := records.NewReader(a)
	games, err := reader.ListGames(cmd.Context())
	if err != nil {
		return err
	}

	listings := make([]gameListing, 0, len(games))
	for _, g := range games {
		l := newGameListing(g)
		if gamesCounts {
			counts, err := reader.CountDependents(cmd.Context(), g.ID)
			if err != nil {
				return err
			}
			l.Counts = &counts
		}
		listings = append(listings, l)
	}

	headers := []string{"ID", "RULESET", "MAP", "SIZE", "SPEED", "TURNS", "VICTORY", "LAST PLAYED"}
	if gamesCounts {
		headers = append(headers, "PLAYERS", "OBJECTS", "VALUES")
	}
	table := render.NewTable(headers...)
	for _, l := range listings {
		victory := "-"
		if l.VictoryType != nil {
			victory = *l.VictoryType
		}
		row := []string{
			strconv.FormatInt(int64(l.ID), 10),
			l.Ruleset,
			l.Map,
			l.MapSizeType,
			l.GameSpeedType,
			strconv.FormatInt(l.TurnCount, 10),
			victory,
			time.Unix(l.LastPlayed, 0).UTC().Format("2006-01-02 15:04"),
		}
		if l.Counts != nil {
			row = append(row,
				strconv.Itoa(l.Counts.Players),
				strconv.Itoa(l.Counts.Objects),
				strconv.Itoa(l.Counts.DataPointValues))
		}
		table.AddRow(row...)
	}

	return render.NewRenderer(cmd.OutOrStdout(), format).Render(listings, table)
}
