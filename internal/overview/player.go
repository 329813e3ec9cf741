package overview

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/supstats/internal/diplomacy"
	"github.com/talgya/supstats/internal/format"
	"github.com/talgya/supstats/internal/model"
	"github.com/talgya/supstats/internal/stats"
)

// PlayerDetail is the player page. Trends are nil when there is no
// usable baseline.
type PlayerDetail struct {
	PlayerSummary
	GameID    int64         `json:"game_id"`
	GameRoute string        `json:"game_route"`
	StartDay  int           `json:"start_day"`
	Points    int           `json:"points"`
	DayTrend  *float64      `json:"day_trend"`
	WeekTrend *float64      `json:"week_trend"`
	Days      []model.Day   `json:"days"`
	Relations []RelationRow `json:"relations"`
}

// RelationRow is one relation the player holds toward another player.
type RelationRow struct {
	Foreign  PlayerSummary `json:"foreign"`
	Status   int           `json:"status"`
	Label    string        `json:"label"`
	StartDay int           `json:"start_day"`
	EndDay   *int          `json:"end_day,omitempty"`
	InForce  bool          `json:"in_force"`
}

func trend(days []model.Day, offset int) *float64 {
	v, ok := stats.Trend(days, offset)
	if !ok {
		return nil
	}
	return &v
}

// Player builds the detail of the player with the given internal id.
func (s *Service) Player(ctx context.Context, id int64) (PlayerDetail, error) {
	p, err := s.store.PlayerByID(ctx, id)
	if err != nil {
		return PlayerDetail{}, err
	}
	game, err := s.store.GameByID(ctx, p.GameID)
	if err != nil {
		return PlayerDetail{}, err
	}

	var (
		days      []model.Day
		relations []model.Relation
		players   []model.Player
		mapID     int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		days, err = s.store.DaysByPlayer(gctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		relations, err = s.store.RelationsByNative(gctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		players, err = s.store.PlayersByGame(gctx, game.ID)
		return err
	})
	g.Go(func() (err error) {
		mapID, err = s.externalMapID(gctx, game)
		return err
	})
	if err := g.Wait(); err != nil {
		return PlayerDetail{}, fmt.Errorf("load player %d: %w", id, err)
	}

	byID := make(map[int64]model.Player, len(players))
	for _, other := range players {
		byID[other.ID] = other
	}
	today := stats.GameDay(game, s.now())

	sorted := diplomacy.SortedRelations(p.ID, relations)
	rows := make([]RelationRow, 0, len(sorted))
	for _, r := range sorted {
		foreign, ok := byID[r.PlayerForeignID]
		if !ok {
			continue
		}
		rows = append(rows, RelationRow{
			Foreign:  s.summarize(foreign, game, mapID),
			Status:   r.Status,
			Label:    diplomacy.StatusLabel(r.Status),
			StartDay: r.StartDay,
			EndDay:   r.EndDay,
			InForce:  diplomacy.InForce(r, today),
		})
	}

	return PlayerDetail{
		PlayerSummary: s.summarize(p, game, mapID),
		GameID:        game.GameID,
		GameRoute:     format.GameRoute(game),
		StartDay:      p.StartDay,
		Points:        stats.CurrentPoints(days),
		DayTrend:      trend(days, stats.DayOffset),
		WeekTrend:     trend(days, stats.WeekOffset),
		Days:          days,
		Relations:     rows,
	}, nil
}

// UserDetail lists the games a site user has played.
type UserDetail struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	SiteURL string     `json:"site_url"`
	Games   []UserGame `json:"games"`
}

// UserGame is one of the user's player slots.
type UserGame struct {
	GameID      int64  `json:"game_id"`
	GameRoute   string `json:"game_route"`
	PlayerRoute string `json:"player_route"`
	NationName  string `json:"nation_name"`
	Points      int    `json:"points"`
	Defeated    bool   `json:"defeated"`
}

// User builds the game history of the user with the given internal id.
func (s *Service) User(ctx context.Context, id int64) (UserDetail, error) {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	players, err := s.store.PlayersByUser(ctx, u.ID)
	if err != nil {
		return UserDetail{}, err
	}

	out := UserDetail{
		ID:      u.ID,
		Name:    u.Name,
		SiteURL: format.UserSiteURL(u),
		Games:   make([]UserGame, len(players)),
	}
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range players {
		g.Go(func() error {
			game, err := s.store.GameByID(gctx, p.GameID)
			if err != nil {
				return err
			}
			days, err := s.store.DaysByPlayer(gctx, p.ID)
			if err != nil {
				return err
			}
			out.Games[i] = UserGame{
				GameID:      game.GameID,
				GameRoute:   format.GameRoute(game),
				PlayerRoute: format.PlayerRoute(p),
				NationName:  p.NationName,
				Points:      stats.CurrentPoints(days),
				Defeated:    p.Defeated,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return UserDetail{}, fmt.Errorf("load user %d: %w", id, err)
	}
	return out, nil
}
