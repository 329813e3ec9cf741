package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/supstats/internal/model"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixed() *Humanize {
	return &Humanize{Now: func() time.Time { return now }}
}

func TestNaturalTime(t *testing.T) {
	h := fixed()
	assert.Equal(t, "3 days ago", h.NaturalTime(now.Add(-72*time.Hour)))
	assert.Equal(t, "2 hours from now", h.NaturalTime(now.Add(2*time.Hour)))
	assert.Equal(t, "now", h.NaturalTime(now))
}

func TestNaturalDate(t *testing.T) {
	h := fixed()
	tests := []struct {
		in   time.Time
		want string
	}{
		{now.Add(-6 * time.Hour), "today"},
		{now.Add(24 * time.Hour), "tomorrow"},
		{now.Add(-24 * time.Hour), "yesterday"},
		{time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), "Jun 01"},
		{time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), "Mar 05"},
		{time.Date(2023, 12, 24, 9, 0, 0, 0, time.UTC), "Dec 24 2023"},
		{time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC), "Feb 01 2025"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.NaturalDate(tt.in), tt.in.String())
	}
}

func TestNextDayETA(t *testing.T) {
	h := fixed()
	future := now.Add(5 * time.Hour)
	past := now.Add(-time.Minute)

	assert.Equal(t, "5 hours from now", NextDayETA(model.Game{NextDayTime: &future}, h, now))
	assert.Equal(t, UnknownETA, NextDayETA(model.Game{NextDayTime: &past}, h, now))
	assert.Equal(t, UnknownETA, NextDayETA(model.Game{NextDayTime: &now}, h, now))
	assert.Equal(t, UnknownETA, NextDayETA(model.Game{}, h, now))
}

func TestPlayerFormatting(t *testing.T) {
	h := fixed()
	seen := now.Add(-48 * time.Hour)

	assert.Equal(t, "", LastLoginFormatted(model.Player{}, h))
	assert.Equal(t, "2 days ago", LastLoginFormatted(model.Player{LastLogin: &seen}, h))
	assert.Equal(t, "King Arthur", Fullname(model.Player{Title: "King", Name: "Arthur"}))
	assert.Equal(t, "Arthur", Fullname(model.Player{Name: "Arthur"}))
	assert.Equal(t, "today", StartAtFormatted(model.Game{StartAt: now}, h))
}

func TestGameSiteURL(t *testing.T) {
	uid := int64(3)
	game := model.Game{GameID: 1234567}
	players := []model.Player{{ID: 1}, {ID: 2, UserID: &uid}}

	const play = "https://www.supremacy1914.com/play.php?gameID=1234567"
	assert.Equal(t, play+"&mode=guest", GameSiteURL(game, Anonymous{}, players))
	assert.Equal(t, play+"&mode=guest", GameSiteURL(game, nil, players))
	assert.Equal(t, play+"&mode=guest", GameSiteURL(game, SiteUser{ID: 4, Site: 900}, players))
	assert.Equal(t, play+"&uid=901", GameSiteURL(game, SiteUser{ID: 3, Site: 901}, players))
}

func TestImageURLs(t *testing.T) {
	game := model.Game{GameID: 2117045}
	custom := model.Player{PlayerID: 12, PlayerImageID: 555, FlagImageID: 556}
	fallback := model.Player{PlayerID: 12, PlayerImageID: model.NoImage, FlagImageID: 556}

	assert.Equal(t, "https://static1.bytro.com/games/sup/2117/045/555.png", PlayerImageURL(custom, game, 90))
	assert.Equal(t, "https://static1.bytro.com/games/sup/2117/045/556.png", FlagImageURL(custom, game, 90))
	assert.Equal(t,
		"https://www.supremacy1914.com/clients/s1914-client/s1914-client_live/images/map/avatars/90/12.jpg",
		PlayerImageURL(fallback, game, 90))
	assert.Equal(t,
		"https://www.supremacy1914.com/clients/s1914-client/s1914-client_live/images/map/flags/90/small_12.png",
		FlagImageURL(fallback, game, 90))

	short := model.Game{GameID: 42}
	assert.Equal(t, "https://static1.bytro.com/games/sup/42/42/555.png", PlayerImageURL(custom, short, 90))
}

func TestStaticURLs(t *testing.T) {
	assert.Equal(t,
		"https://supremacy1914.com/fileadmin/templates/supremacy_1914/images/scenarios/scenario_41_small.jpg",
		ScenarioImageURL(model.Game{Scenario: 41}))
	assert.Equal(t,
		"https://www.supremacy1914.com/index.php?id=59&tx_supgames_piUserPage[uid]=777",
		UserSiteURL(model.User{SiteID: 777}))
	assert.Equal(t, "/api/v1/game/55", GameRoute(model.Game{GameID: 55}))
	assert.Equal(t, "/api/v1/player/8", PlayerRoute(model.Player{ID: 8}))
	assert.Equal(t, "/api/v1/user/3", UserRoute(model.User{ID: 3}))
}
