package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tipbot/internal/model"
)

// FileConfig describes a JSON file feed.
type FileConfig struct {
	Name  string
	Path  string
	Tag   string      // provenance tag written to MatchFacts.Notes
	Sport model.Sport // used when a record carries no sport
}

// FileSource reads fixtures from a JSON array on disk. A missing file is an
// empty feed, not an error.
type FileSource struct {
	cfg FileConfig
}

// NewFileSource creates a FileSource.
func NewFileSource(cfg FileConfig) *FileSource {
	if cfg.Sport == "" {
		cfg.Sport = model.SportFootball
	}
	return &FileSource{cfg: cfg}
}

// DefaultFileSources returns the standard file feeds found in dir: the
// bookmaker export first, then plain fixtures, xG/form and match statistics.
func DefaultFileSources(dir string) []*FileSource {
	return []*FileSource{
		NewFileSource(FileConfig{Name: "tipsport_fixtures", Path: filepath.Join(dir, "tipsport_today.json"), Tag: model.TagReference}),
		NewFileSource(FileConfig{Name: "fixtures", Path: filepath.Join(dir, "fixtures_today.json")}),
		NewFileSource(FileConfig{Name: "understat", Path: filepath.Join(dir, "understat_today.json"), Tag: "understat"}),
		NewFileSource(FileConfig{Name: "sofascore", Path: filepath.Join(dir, "sofascore_today.json"), Tag: "sofascore"}),
	}
}

// Name returns the feed name.
func (s *FileSource) Name() string { return s.cfg.Name }

// Path returns the file location.
func (s *FileSource) Path() string { return s.cfg.Path }

type fileRecord struct {
	Sport       string      `json:"sport"`
	League      string      `json:"league"`
	Home        string      `json:"home"`
	Away        string      `json:"away"`
	TSUTC       *float64    `json:"ts_utc"`
	HomeForm10  *float64    `json:"home_form10"`
	AwayForm10  *float64    `json:"away_form10"`
	XGSum       *float64    `json:"xg_sum"`
	PaceHint    *float64    `json:"pace_hint"`
	CardsAvg    *float64    `json:"cards_avg"`
	CornersAvg  *float64    `json:"corners_avg"`
	InjuriesAbs *float64    `json:"injuries_abs"`
	HomeStats   *sideRecord `json:"home_stats"`
	AwayStats   *sideRecord `json:"away_stats"`
	H2H1HRate   *float64    `json:"h2h_1h_rate"`
	H2HBTTSRate *float64    `json:"h2h_btts_rate"`
}

type sideRecord struct {
	Form5Pts          float64 `json:"form5_pts"`
	GFPG              float64 `json:"gf_pg"`
	GAPG              float64 `json:"ga_pg"`
	FirstHalfGoalRate float64 `json:"first_half_goal_rate"`
	BTTSRate          float64 `json:"btts_rate"`
	InjuriesKey       int     `json:"injuries_key"`
}

func (r *sideRecord) stats() *model.SideStats {
	if r == nil {
		return nil
	}
	return &model.SideStats{
		Form5Pts:          r.Form5Pts,
		GoalsForPG:        r.GFPG,
		GoalsAgainstPG:    r.GAPG,
		FirstHalfGoalRate: r.FirstHalfGoalRate,
		BTTSRate:          r.BTTSRate,
		KeyInjuries:       r.InjuriesKey,
	}
}

// Fetch reads and normalizes the file.
func (s *FileSource) Fetch(ctx context.Context) ([]model.MatchFacts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.cfg.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.cfg.Path, err)
	}

	var raw []fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.cfg.Path, err)
	}

	out := make([]model.MatchFacts, 0, len(raw))
	for _, r := range raw {
		out = append(out, s.convert(r))
	}
	return out, nil
}

func (s *FileSource) convert(r fileRecord) model.MatchFacts {
	sport := s.cfg.Sport
	if sp, ok := model.ParseSport(r.Sport); ok {
		sport = sp
	}
	m := model.MatchFacts{
		Sport:      sport,
		League:     strings.TrimSpace(r.League),
		Home:       strings.TrimSpace(r.Home),
		Away:       strings.TrimSpace(r.Away),
		HomeForm10: r.HomeForm10,
		AwayForm10: r.AwayForm10,
		XGSum:      r.XGSum,
		PaceHint:   r.PaceHint,
		CardsAvg:   r.CardsAvg,
		CornersAvg: r.CornersAvg,

		HomeStats:    r.HomeStats.stats(),
		AwayStats:    r.AwayStats.stats(),
		H2HFirstHalf: r.H2H1HRate,
		H2HBTTS:      r.H2HBTTSRate,

		Notes: s.cfg.Tag,
	}
	if r.TSUTC != nil && *r.TSUTC > 0 {
		m.Kickoff = time.Unix(int64(*r.TSUTC), 0).UTC()
	}
	if r.InjuriesAbs != nil {
		m.InjuriesAbs = model.Int(int(math.Round(*r.InjuriesAbs)))
	}
	return m
}
