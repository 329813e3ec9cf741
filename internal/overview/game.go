package overview

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/supstats/internal/format"
	"github.com/talgya/supstats/internal/market"
	"github.com/talgya/supstats/internal/model"
	"github.com/talgya/supstats/internal/stats"
)

// GameSummary is a game as shown in the game list.
type GameSummary struct {
	GameID        int64  `json:"game_id"`
	Scenario      int    `json:"scenario"`
	ScenarioImage string `json:"scenario_image"`
	StartedAt     string `json:"started_at"`
	Day           int    `json:"day"`
	EndOfGame     bool   `json:"end_of_game"`
	Route         string `json:"route"`
}

// GameOverview is the game page.
type GameOverview struct {
	GameSummary
	Game          model.Game     `json:"game"`
	LastDay       int            `json:"last_day"`
	SiteURL       string         `json:"site_url"`
	NextDay       string         `json:"next_day"`
	ActivePlayers int            `json:"active_players"`
	HumanPlayers  int            `json:"human_players"`
	TotalPlayers  int            `json:"total_players"`
	ViewerPlayer  *PlayerSummary `json:"viewer_player,omitempty"`
	Standings     []StandingRow  `json:"standings"`
	LatestMarket  *model.Market  `json:"latest_market,omitempty"`
}

// StandingRow is one ranked player.
type StandingRow struct {
	Rank      int           `json:"rank"`
	Player    PlayerSummary `json:"player"`
	Points    int           `json:"points"`
	DayTrend  float64       `json:"day_trend"`
	WeekTrend float64       `json:"week_trend"`
}

func (s *Service) gameSummary(g model.Game) GameSummary {
	return GameSummary{
		GameID:        g.GameID,
		Scenario:      g.Scenario,
		ScenarioImage: format.ScenarioImageURL(g),
		StartedAt:     format.StartAtFormatted(g, s.human),
		Day:           stats.GameDay(g, s.now()),
		EndOfGame:     g.EndOfGame,
		Route:         format.GameRoute(g),
	}
}

// Games lists games, newest first.
func (s *Service) Games(ctx context.Context, trackedOnly bool) ([]GameSummary, error) {
	games, err := s.store.Games(ctx, trackedOnly)
	if err != nil {
		return nil, err
	}
	out := make([]GameSummary, len(games))
	for i, g := range games {
		out[i] = s.gameSummary(g)
	}
	return out, nil
}

// gameData is everything loaded for one game.
type gameData struct {
	game    model.Game
	players []model.Player
	days    []model.Day
	markets []model.Market
	mapID   int64
}

func (s *Service) loadGame(ctx context.Context, game model.Game, withMarkets bool) (gameData, error) {
	d := gameData{game: game}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.players, err = s.store.PlayersByGame(gctx, game.ID)
		return err
	})
	g.Go(func() (err error) {
		d.days, err = s.store.DaysByGame(gctx, game.ID)
		return err
	})
	g.Go(func() (err error) {
		d.mapID, err = s.externalMapID(gctx, game)
		return err
	})
	if withMarkets {
		g.Go(func() (err error) {
			d.markets, err = s.store.MarketsByGame(gctx, game.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return d, fmt.Errorf("load game %d: %w", game.GameID, err)
	}
	return d, nil
}

func (s *Service) standingRows(d gameData) []StandingRow {
	ranked := stats.Standings(d.players, stats.GroupDays(d.days))
	rows := make([]StandingRow, len(ranked))
	for i, st := range ranked {
		rows[i] = StandingRow{
			Rank:      st.Rank,
			Player:    s.summarize(st.Player, d.game, d.mapID),
			Points:    st.Points,
			DayTrend:  st.DayTrend,
			WeekTrend: st.WeekTrend,
		}
	}
	return rows
}

// Game builds the overview of the game with the given upstream id as
// seen by viewer.
func (s *Service) Game(ctx context.Context, gameID int64, viewer format.Viewer) (GameOverview, error) {
	game, err := s.store.GameByExternalID(ctx, gameID)
	if err != nil {
		return GameOverview{}, err
	}
	d, err := s.loadGame(ctx, game, true)
	if err != nil {
		return GameOverview{}, err
	}

	out := GameOverview{
		GameSummary:   s.gameSummary(game),
		Game:          game,
		LastDay:       stats.LastDay(d.days),
		SiteURL:       format.GameSiteURL(game, viewer, d.players),
		NextDay:       format.NextDayETA(game, s.human, s.now()),
		ActivePlayers: stats.ActivePlayerCount(d.players),
		HumanPlayers:  len(stats.AllHumanPlayers(d.players)),
		TotalPlayers:  len(d.players),
		Standings:     s.standingRows(d),
	}
	if p, ok := format.ViewerPlayer(viewer, d.players); ok {
		sum := s.summarize(p, game, d.mapID)
		out.ViewerPlayer = &sum
	}
	if m, ok := market.Latest(d.markets); ok {
		out.LatestMarket = &m
	}
	return out, nil
}

// Players lists a game's players in slot order.
func (s *Service) Players(ctx context.Context, gameID int64) ([]PlayerSummary, error) {
	game, err := s.store.GameByExternalID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	d, err := s.loadGame(ctx, game, false)
	if err != nil {
		return nil, err
	}
	out := make([]PlayerSummary, len(d.players))
	for i, p := range d.players {
		out[i] = s.summarize(p, game, d.mapID)
	}
	return out, nil
}

// Standings ranks the players of the game with the given upstream id.
func (s *Service) Standings(ctx context.Context, gameID int64) ([]StandingRow, error) {
	game, err := s.store.GameByExternalID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	d, err := s.loadGame(ctx, game, false)
	if err != nil {
		return nil, err
	}
	return s.standingRows(d), nil
}

// RawStandings ranks a loaded game's players without presentation.
func (s *Service) RawStandings(ctx context.Context, game model.Game) ([]stats.Standing, error) {
	d, err := s.loadGame(ctx, game, false)
	if err != nil {
		return nil, err
	}
	return stats.Standings(d.players, stats.GroupDays(d.days)), nil
}
