package source

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockRe       = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	capitalPairRe = regexp.MustCompile(`(\p{Lu}[\p{L}.'’]+)\s+(\p{Lu}[\p{L}.'’]+)`)
)

var teamSeparators = []string{" - ", " – ", " vs ", " v "}

// rollGrace is how far in the past a same-day kickoff may be before it is
// assumed to mean tomorrow.
const rollGrace = 10 * time.Minute

// ParseClock finds the first hh:mm in text.
func ParseClock(text string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// KickoffAt returns today's hour:minute in loc, rolled to tomorrow when that
// moment has already passed.
func KickoffAt(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	ko := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if ko.Before(local.Add(-rollGrace)) {
		ko = ko.AddDate(0, 0, 1)
	}
	return ko
}

// SplitTeams extracts a home/away pair from a listing title. Explicit
// separators are tried first, then two adjacent capitalized words.
func SplitTeams(text string) (home, away string, ok bool) {
	t := strings.Join(strings.Fields(clockRe.ReplaceAllString(text, " ")), " ")
	lower := strings.ToLower(t)
	for _, sep := range teamSeparators {
		if i := strings.Index(lower, sep); i > 0 {
			home = strings.TrimSpace(t[:i])
			away = strings.TrimSpace(t[i+len(sep):])
			if home != "" && away != "" {
				return home, away, true
			}
		}
	}
	if m := capitalPairRe.FindStringSubmatch(t); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}
