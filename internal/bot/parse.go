package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tipbot/internal/engine"
	"tipbot/internal/model"
)

// ParseTopArgs parses arguments for /top.
// Format: [sport] [min_confidence] [hours] [count]
func ParseTopArgs(args string) (engine.Request, error) {
	var req engine.Request
	parts := strings.Fields(args)

	if len(parts) > 0 {
		if _, err := strconv.Atoi(parts[0]); err != nil {
			sport, ok := model.ParseSport(parts[0])
			if !ok {
				return engine.Request{}, fmt.Errorf("unknown sport %q, use: football, hockey, tennis, basketball, esports", parts[0])
			}
			req.Sport = sport
			parts = parts[1:]
		}
	}
	if len(parts) > 3 {
		return engine.Request{}, fmt.Errorf("usage: /top [sport] [min_confidence] [hours] [count]")
	}

	limits := []struct {
		name   string
		lo, hi int
	}{
		{"min confidence", 1, 100},
		{"hours", 1, 48},
		{"count", 1, 20},
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < limits[i].lo || v > limits[i].hi {
			return engine.Request{}, fmt.Errorf("%s must be between %d and %d", limits[i].name, limits[i].lo, limits[i].hi)
		}
		vals[i] = v
	}

	if len(vals) > 0 {
		req.MinConfidence = vals[0]
	}
	if len(vals) > 1 {
		req.Window = time.Duration(vals[1]) * time.Hour
	}
	if len(vals) > 2 {
		req.MaxCount = vals[2]
	}
	return req, nil
}

// ParseIntervalArg parses the scan interval in minutes.
func ParseIntervalArg(args string) (time.Duration, error) {
	parts := strings.Fields(args)
	if len(parts) != 1 {
		return 0, fmt.Errorf("usage: /interval <minutes>")
	}
	mins, err := strconv.Atoi(parts[0])
	if err != nil || mins < 1 || mins > 1440 {
		return 0, fmt.Errorf("interval must be between 1 and 1440 minutes")
	}
	return time.Duration(mins) * time.Minute, nil
}

// ParseLimitArg parses an optional count, returning def when args is empty.
func ParseLimitArg(args string, def, hi int) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil || n < 1 || n > hi {
		return 0, fmt.Errorf("count must be between 1 and %d", hi)
	}
	return n, nil
}
