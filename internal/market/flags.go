package market

import (
	"regexp"
	"strconv"
	"strings"

	"tipbot/internal/model"
)

// Flags are boolean traits inferred from a market name without external data.
type Flags struct {
	HalfTime   bool
	Cards      bool
	Corners    bool
	BTTS       bool
	Quarter    bool
	FirstGoal  bool
	Under      bool
	Over       bool
	WTA        bool
	LineNumber *float64

	Sport model.Sport
}

var firstNumberRe = regexp.MustCompile(`-?\d+(\.\d+)?`)

// InferFlags derives market traits from the sport, league and market text.
func InferFlags(sport model.Sport, league, marketName string) Flags {
	m := strings.ToLower(marketName)
	return Flags{
		HalfTime:   containsAny(m, "ht/", "ht-ft", "half time", "1. poločas", "poločas"),
		Cards:      containsAny(m, "card", "žlut", "yellow"),
		Corners:    containsAny(m, "corner", "roh"),
		BTTS:       containsAny(m, "btts", "both teams to score", "oba dají gól", "oba daji gol"),
		Quarter:    containsAny(m, "q1", "q2", "q3", "q4", "1q", "2q", "3q", "4q", "1. čtvrtina", "first quarter"),
		FirstGoal:  containsAny(m, "first goal", "first team to score", "první gól"),
		Under:      containsAny(m, "under", "méně", "mene"),
		Over:       containsAny(m, "over", "více", "vice"),
		WTA:        strings.Contains(strings.ToLower(league), "wta"),
		LineNumber: ParseFirstNumber(m),
		Sport:      sport,
	}
}

// ParseFirstNumber returns the first decimal number in text.
// A comma is accepted as the decimal separator.
func ParseFirstNumber(text string) *float64 {
	s := firstNumberRe.FindString(strings.ReplaceAll(text, ",", "."))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
