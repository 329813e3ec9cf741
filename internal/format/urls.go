package format

import (
	"fmt"
	"strconv"

	"github.com/talgya/supstats/internal/model"
)

const (
	siteBase     = "https://www.supremacy1914.com"
	playURL      = siteBase + "/play.php?gameID=%d"
	userURL      = siteBase + "/index.php?id=59&tx_supgames_piUserPage[uid]=%d"
	scenarioURL  = "https://supremacy1914.com/fileadmin/templates/supremacy_1914/images/scenarios/scenario_%d_small.jpg"
	staticURL    = "https://static1.bytro.com/games/sup/%s/%s/%d.png"
	clientImages = siteBase + "/clients/s1914-client/s1914-client_live/images/map"
	avatarURL    = clientImages + "/avatars/%d/%d.jpg"
	flagURL      = clientImages + "/flags/%d/small_%d.png"
)

// Viewer is whoever requested a page.
type Viewer interface {
	Authenticated() bool
	UserID() int64
	SiteID() int64
}

// Anonymous is a viewer without an account.
type Anonymous struct{}

func (Anonymous) Authenticated() bool { return false }
func (Anonymous) UserID() int64       { return 0 }
func (Anonymous) SiteID() int64       { return 0 }

// SiteUser is an authenticated viewer.
type SiteUser struct {
	ID   int64 // Internal user id
	Site int64 // Upstream account id
}

func (u SiteUser) Authenticated() bool { return true }
func (u SiteUser) UserID() int64       { return u.ID }
func (u SiteUser) SiteID() int64       { return u.Site }

// ViewerPlayer finds the viewer's player among a game's players.
func ViewerPlayer(v Viewer, players []model.Player) (model.Player, bool) {
	if v == nil || !v.Authenticated() {
		return model.Player{}, false
	}
	for _, p := range players {
		if p.UserID != nil && *p.UserID == v.UserID() {
			return p, true
		}
	}
	return model.Player{}, false
}

// GameSiteURL links to the game on the upstream site. A viewer who plays
// in the game gets their account id appended; everyone else joins as a
// guest.
func GameSiteURL(game model.Game, v Viewer, players []model.Player) string {
	url := fmt.Sprintf(playURL, game.GameID)
	if _, ok := ViewerPlayer(v, players); ok {
		return url + "&uid=" + strconv.FormatInt(v.SiteID(), 10)
	}
	return url + "&mode=guest"
}

// ScenarioImageURL is the small scenario thumbnail.
func ScenarioImageURL(game model.Game) string {
	return fmt.Sprintf(scenarioURL, game.Scenario)
}

// UserSiteURL links to the user's upstream profile.
func UserSiteURL(u model.User) string {
	return fmt.Sprintf(userURL, u.SiteID)
}

// gamePath splits a game id into the two static asset directories: its
// first four and last three digits.
func gamePath(gameID int64) (string, string) {
	s := strconv.FormatInt(gameID, 10)
	head, tail := s, s
	if len(head) > 4 {
		head = head[:4]
	}
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	return head, tail
}

// PlayerImageURL is the player's portrait. Without a custom image the
// map's default avatar for the slot is used.
func PlayerImageURL(p model.Player, game model.Game, mapID int64) string {
	if p.PlayerImageID != model.NoImage {
		head, tail := gamePath(game.GameID)
		return fmt.Sprintf(staticURL, head, tail, p.PlayerImageID)
	}
	return fmt.Sprintf(avatarURL, mapID, p.PlayerID)
}

// FlagImageURL is the player's flag. The custom flag is only used when
// the player also has a custom portrait.
func FlagImageURL(p model.Player, game model.Game, mapID int64) string {
	if p.PlayerImageID != model.NoImage {
		head, tail := gamePath(game.GameID)
		return fmt.Sprintf(staticURL, head, tail, p.FlagImageID)
	}
	return fmt.Sprintf(flagURL, mapID, p.PlayerID)
}

// GameRoute is the API path of a game overview.
func GameRoute(game model.Game) string {
	return fmt.Sprintf("/api/v1/game/%d", game.GameID)
}

// PlayerRoute is the API path of a player detail.
func PlayerRoute(p model.Player) string {
	return fmt.Sprintf("/api/v1/player/%d", p.ID)
}

// UserRoute is the API path of a user's game history.
func UserRoute(u model.User) string {
	return fmt.Sprintf("/api/v1/user/%d", u.ID)
}
