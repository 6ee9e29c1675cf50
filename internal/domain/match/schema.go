package match

// Identifying and odds columns of a match record.
const (
	ColDate         = "date"
	ColHomeTeam     = "home_team"
	ColAwayTeam     = "away_team"
	ColHomeGoals    = "home_goals"
	ColAwayGoals    = "away_goals"
	ColHomeOdds     = "home_odds_dec"
	ColDrawOdds     = "draw_odds_dec"
	ColAwayOdds     = "away_odds_dec"
	ColRefName      = "ref_name"
	ColLeagueID     = "league_id"
	ColCrowdIndex   = "crowd_index"
	ColRefPenRate   = "ref_pen_rate"
	ColHomeTravel   = "home_travel_km"
	ColAwayTravel   = "away_travel_km"
	ColHomeRest     = "home_rest_days"
	ColAwayRest     = "away_rest_days"
	ColHomeInjury   = "home_injury_index"
	ColAwayInjury   = "away_injury_index"
	ColHomeGK       = "home_gk_rating"
	ColAwayGK       = "away_gk_rating"
	ColHomeSetpiece = "home_setpiece_rating"
	ColAwaySetpiece = "away_setpiece_rating"
)

// Side is the home or away half of a fixture; it doubles as the column
// prefix for per-team enrichment fields.
type Side string

const (
	Home Side = "home"
	Away Side = "away"
)

var Sides = []Side{Home, Away}

func (s Side) Column(field string) string {
	return string(s) + "_" + field
}

// TeamColumn is the match column carrying this side's team name.
func (s Side) TeamColumn() string {
	return s.Column("team")
}

// BaseColumns must exist on every match table before any join runs.
var BaseColumns = []string{
	ColDate,
	ColHomeTeam,
	ColAwayTeam,
	ColHomeOdds,
	ColDrawOdds,
	ColAwayOdds,
}

// Lineup flag fields, per side.
const (
	FlagKeyAttOut    = "key_att_out"
	FlagKeyDefOut    = "key_def_out"
	FlagKeeperChange = "keeper_changed"
)

var LineupFlags = []string{FlagKeyAttOut, FlagKeyDefOut, FlagKeeperChange}

// FlagColumns lists the six per-side lineup flag columns.
func FlagColumns() []string {
	out := make([]string, 0, len(Sides)*len(LineupFlags))
	for _, side := range Sides {
		for _, flag := range LineupFlags {
			out = append(out, side.Column(flag))
		}
	}
	return out
}

// Advanced-metric fields, per side. They stay null when no coverage exists.
const (
	MetricXG       = "xg"
	MetricXGA      = "xga"
	MetricXGD      = "xgd"
	MetricXGDPer90 = "xgd_per90"
)

var Metrics = []string{MetricXG, MetricXGA, MetricXGD, MetricXGDPer90}

// RequiredColumns is the populated schema of an enriched record, in the
// order the training jobs read it. Goals are only present on results.
var RequiredColumns = []string{
	ColDate, ColHomeTeam, ColAwayTeam,
	ColHomeOdds, ColDrawOdds, ColAwayOdds,
	ColHomeRest, ColAwayRest,
	ColHomeTravel, ColAwayTravel,
	ColHomeInjury, ColAwayInjury,
	ColHomeGK, ColAwayGK,
	ColHomeSetpiece, ColAwaySetpiece,
	ColRefPenRate, ColCrowdIndex,
}
