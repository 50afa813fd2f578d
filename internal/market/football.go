package market

import "tipbot/internal/model"

// Football market codes.
const (
	CodeOver15       = "FT_OU_1_5"
	CodeOver25       = "FT_OU_2_5"
	CodeHTGoal       = "HT_GOAL_YES"
	CodeBTTS         = "BTTS_YES"
	CodeHomeOver15   = "HOME_OVER_1_5"
	CodeAwayOver15   = "AWAY_OVER_1_5"
	CodeAsianHome0   = "ASIAN_HOME_0"
	CodeAsianAway0   = "ASIAN_AWAY_0"
	CodeAsianHomeQtr = "ASIAN_HOME_+0_25"
	CodeAsianAwayQtr = "ASIAN_AWAY_+0_25"
	CodeCardsOver    = "CARDS_OVER"
	CodeCornersOver  = "CORNERS_OVER"
	CodeHTCorners    = "1H_CORNERS_OVER"
	CodeHTCards      = "1H_CARDS_OVER"
)

// Market groups.
const (
	GroupGoals     = "goals"
	GroupHalfTime  = "half-time"
	GroupTeamGoals = "team goals"
	GroupHandicap  = "handicap"
	GroupCards     = "cards"
	GroupCorners   = "corners"
)

// FootballMarkets returns the football definitions in match priority order.
func FootballMarkets() []Def {
	return []Def{
		{
			Code:        CodeOver15,
			Label:       "Total goals over 1.5",
			DisplayName: "Počet gólů v zápase Over 1.5",
			Group:       GroupGoals,
			Rules: []Rule{
				Regex(`\b(over|více)\s*1[.,]?5\b`),
				Regex(`počet gólů.*over\s*1[.,]?5`),
			},
		},
		{
			Code:        CodeOver25,
			Label:       "Total goals over 2.5",
			DisplayName: "Počet gólů v zápase Over 2.5",
			Group:       GroupGoals,
			Rules: []Rule{
				Regex(`\b(over|více)\s*2[.,]?5\b`),
				Regex(`počet gólů.*over\s*2[.,]?5`),
			},
		},
		{
			Code:        CodeHTGoal,
			Label:       "Goal before half-time: yes",
			DisplayName: "Padne gól v 1. poločase – ANO",
			Group:       GroupHalfTime,
			Rules: []Rule{
				Regex(`(padne|bude).*(gól|gol).*(1\.\s*poločas|první poločas).*ano`),
				Regex(`g[oó]l v 1\.? polo[cč]ase.*ano`),
				Regex(`goal.*(1st|first) half.*yes`),
			},
		},
		{
			Code:        CodeBTTS,
			Label:       "Both teams to score: yes",
			DisplayName: "Oba týmy dají gól – ANO",
			Group:       GroupGoals,
			Rules: []Rule{
				Regex(`(oba.*(dají|da) g[oó]l).*ano`),
				Regex(`\bbtts\b.*(yes|ano)`),
				Contains("both teams to score - yes"),
			},
		},
		{
			Code:        CodeHomeOver15,
			Label:       "Home team goals over 1.5",
			DisplayName: "Týmové góly domácí Over 1.5",
			Group:       GroupTeamGoals,
			Rules:       []Rule{Regex(`(dom[aá]c[ií]).*(g[oó]ly|g[oó]l[uů]).*over\s*1[.,]?5`)},
		},
		{
			Code:        CodeAwayOver15,
			Label:       "Away team goals over 1.5",
			DisplayName: "Týmové góly hosté Over 1.5",
			Group:       GroupTeamGoals,
			Rules:       []Rule{Regex(`(host[eé]).*(g[oó]ly|g[oó]l[uů]).*over\s*1[.,]?5`)},
		},
		{
			Code:        CodeAsianHome0,
			Label:       "Asian handicap 0 (draw no bet): home",
			DisplayName: "Asijský handicap 0 (draw no bet) – domácí",
			Group:       GroupHandicap,
			Rules: []Rule{
				Regex(`(asijsk[yý]|asian).*handicap.*0.*(dom[aá]c[ií]|home)`),
				Regex(`(dnb|draw\s*no\s*bet).*(dom[aá]c[ií]|home)`),
			},
		},
		{
			Code:        CodeAsianAway0,
			Label:       "Asian handicap 0 (draw no bet): away",
			DisplayName: "Asijský handicap 0 (draw no bet) – hosté",
			Group:       GroupHandicap,
			Rules: []Rule{
				Regex(`(asijsk[yý]|asian).*handicap.*0.*(host[eé]|away)`),
				Regex(`(dnb|draw\s*no\s*bet).*(host[eé]|away)`),
			},
		},
		{
			Code:        CodeAsianHomeQtr,
			Label:       "Asian handicap +0.25: home",
			DisplayName: "Asijský handicap +0.25 – domácí",
			Group:       GroupHandicap,
			Rules:       []Rule{Regex(`(asian|asijsk).*handicap.*\+?0[.,]?25.*(dom[aá]c[ií]|home)`)},
		},
		{
			Code:        CodeAsianAwayQtr,
			Label:       "Asian handicap +0.25: away",
			DisplayName: "Asijský handicap +0.25 – hosté",
			Group:       GroupHandicap,
			Rules:       []Rule{Regex(`(asian|asijsk).*handicap.*\+?0[.,]?25.*(host[eé]|away)`)},
		},
		{
			Code:        CodeCardsOver,
			Label:       "Cards over (total)",
			DisplayName: "Karty Over (celkem)",
			Group:       GroupCards,
			Rules: []Rule{
				Regex(`karty?.*(over|více)`),
				Regex(`cards?.*over`),
			},
		},
		{
			Code:        CodeCornersOver,
			Label:       "Corners over (total)",
			DisplayName: "Rohy Over (celkem)",
			Group:       GroupCorners,
			Rules: []Rule{
				Regex(`rohy?.*(over|více)`),
				Regex(`corners?.*over`),
			},
		},
		{
			Code:        CodeHTCorners,
			Label:       "Corners over: first half",
			DisplayName: "Rohy Over – 1. poločas",
			Group:       GroupCorners,
			Rules:       []Rule{Regex(`rohy?.*(1\.\s*poločas|prvn[íi]\s*poločas).*(over|více)`)},
		},
		{
			Code:        CodeHTCards,
			Label:       "Cards over: first half",
			DisplayName: "Karty Over – 1. poločas",
			Group:       GroupCards,
			Rules:       []Rule{Regex(`karty?.*(1\.\s*poločas|prvn[íi]\s*poločas).*(over|více)`)},
		},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := NewCatalog(map[model.Sport][]Def{
		model.SportFootball: FootballMarkets(),
	})
	if err != nil {
		panic(err)
	}
	return c
}
