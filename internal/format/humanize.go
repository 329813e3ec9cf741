// Package format derives display values from tracked entities: natural
// language dates, upstream image and profile URLs, and viewer-dependent
// links.
package format

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	"github.com/talgya/supstats/internal/model"
)

// Humanizer phrases timestamps relative to now.
type Humanizer interface {
	NaturalDate(t time.Time) string // "today", "yesterday", "Mar 05"
	NaturalTime(t time.Time) string // "3 days ago", "2 hours from now"
}

// Date layouts, strftime style.
const (
	shortDate = "%b %d"
	longDate  = "%b %d %Y"
)

// A date at least five average months away (5*365/12 days) is shown
// with its year.
const (
	farMonths    = 5
	daysPerYear  = 365
	monthsInYear = 12
)

// Humanize is the default Humanizer. Now defaults to time.Now.
type Humanize struct {
	Now func() time.Time
}

// NewHumanize returns a Humanizer using the wall clock.
func NewHumanize() *Humanize {
	return &Humanize{Now: time.Now}
}

func (h *Humanize) now() time.Time {
	if h == nil || h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// NaturalTime returns relative phrasing such as "3 days ago".
func (h *Humanize) NaturalTime(t time.Time) string {
	return humanize.RelTime(t, h.now(), "ago", "from now")
}

// NaturalDate names the calendar day: today, tomorrow or yesterday when
// adjacent, otherwise the month and day, with the year when the date is
// about five months or more away.
func (h *Humanize) NaturalDate(t time.Time) string {
	now := h.now()
	t = t.In(now.Location())
	delta := calendarDays(now, t)

	switch delta {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case -1:
		return "yesterday"
	}
	if delta < 0 {
		delta = -delta
	}
	if delta*monthsInYear >= farMonths*daysPerYear {
		return strftime.Format(longDate, t)
	}
	return strftime.Format(shortDate, t)
}

// calendarDays counts whole calendar days from a to b.
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// UnknownETA is shown when the next day change is not known.
const UnknownETA = "unknown"

// NextDayETA phrases the time until the game's next day change, or
// "unknown" when it is unset or already passed.
func NextDayETA(game model.Game, h Humanizer, now time.Time) string {
	if game.NextDayTime == nil || !game.NextDayTime.After(now) {
		return UnknownETA
	}
	return h.NaturalTime(*game.NextDayTime)
}

// StartAtFormatted names the game's start date.
func StartAtFormatted(game model.Game, h Humanizer) string {
	return h.NaturalDate(game.StartAt)
}

// LastLoginFormatted phrases the player's last login, or "" if never seen.
func LastLoginFormatted(p model.Player, h Humanizer) string {
	if p.LastLogin == nil {
		return ""
	}
	return h.NaturalTime(*p.LastLogin)
}

// Fullname joins the player's title and name.
func Fullname(p model.Player) string {
	if p.Title == "" {
		return p.Name
	}
	return p.Title + " " + p.Name
}
