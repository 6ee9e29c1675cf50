package reference

import "github.com/riskibarqy/match-features/internal/platform/table"

// Kind names one optional side table.
type Kind string

const (
	KindTeamProfile  Kind = "team_profile"
	KindStadium      Kind = "stadium"
	KindReferee      Kind = "referee"
	KindInjury       Kind = "injury"
	KindLineup       Kind = "lineup"
	KindHybridMetric Kind = "hybrid_metric"
	KindNameMap      Kind = "name_map"
)

// Side-table column names.
const (
	ColTeam           = "team"
	ColDate           = "date"
	ColGKRating       = "gk_rating"
	ColSetpieceRating = "setpiece_rating"
	ColCrowdIndex     = "crowd_index"
	ColStadium        = "stadium"
	ColLat            = "lat"
	ColLon            = "lon"
	ColRefName        = "ref_name"
	ColRefPenRate     = "ref_pen_rate"
	ColInjuryIndex    = "injury_index"
	ColKeyAttOut      = "key_att_out"
	ColKeyDefOut      = "key_def_out"
	ColKeeperChanged  = "keeper_changed"
	ColLeagueID       = "league_id"
	ColXGHybrid       = "xg_hybrid"
	ColXGAHybrid      = "xga_hybrid"
	ColXGDHybrid      = "xgd_hybrid"
	ColXGD90Hybrid    = "xgd90_hybrid"
	ColRaw            = "raw"
	ColCanonical      = "canonical"
)

// Schema is the file name and header of one side table.
type Schema struct {
	Kind     Kind
	FileName string
	Columns  []string
	// HasTeam marks tables whose team column is normalized before joins.
	HasTeam bool
}

var schemas = []Schema{
	{Kind: KindTeamProfile, FileName: "teams_master.csv", Columns: []string{ColTeam, ColGKRating, ColSetpieceRating, ColCrowdIndex}, HasTeam: true},
	{Kind: KindStadium, FileName: "stadiums.csv", Columns: []string{ColTeam, ColStadium, ColLat, ColLon}, HasTeam: true},
	{Kind: KindReferee, FileName: "ref_baselines.csv", Columns: []string{ColRefName, ColRefPenRate}},
	{Kind: KindInjury, FileName: "injuries.csv", Columns: []string{ColDate, ColTeam, ColInjuryIndex}, HasTeam: true},
	{Kind: KindLineup, FileName: "lineups.csv", Columns: []string{ColDate, ColTeam, ColKeyAttOut, ColKeyDefOut, ColKeeperChanged}, HasTeam: true},
	{Kind: KindHybridMetric, FileName: "xg_metrics_hybrid.csv", Columns: []string{ColTeam, ColLeagueID, ColXGHybrid, ColXGAHybrid, ColXGDHybrid, ColXGD90Hybrid}, HasTeam: true},
	{Kind: KindNameMap, FileName: "team_name_map.csv", Columns: []string{ColRaw, ColCanonical}},
}

// Schemas returns every side-table schema in load order.
func Schemas() []Schema {
	out := make([]Schema, len(schemas))
	copy(out, schemas)
	return out
}

func SchemaFor(kind Kind) (Schema, bool) {
	for _, s := range schemas {
		if s.Kind == kind {
			return s, true
		}
	}
	return Schema{}, false
}

// Absence reasons.
const (
	ReasonNotFound   = "not_found"
	ReasonUnreadable = "unreadable"
	ReasonEmpty      = "empty"
)

// Optional is the tagged result of loading a side table. An absent table is
// an empty table with no columns; a present table may still have zero rows.
type Optional struct {
	table   *table.Table
	present bool
	reason  string
}

func Present(t *table.Table) Optional {
	if t == nil {
		t = table.New()
	}
	return Optional{table: t, present: true}
}

func Absent(reason string) Optional {
	return Optional{table: table.New(), reason: reason}
}

func (o Optional) Present() bool {
	return o.present
}

// Table is never nil.
func (o Optional) Table() *table.Table {
	if o.table == nil {
		return table.New()
	}
	return o.table
}

// Reason explains an absent table.
func (o Optional) Reason() string {
	return o.reason
}

// Set bundles every side table for one enrichment run. Tables are read-only
// once built and may be shared across match files.
type Set struct {
	TeamProfile  Optional
	Stadium      Optional
	Referee      Optional
	Injury       Optional
	Lineup       Optional
	HybridMetric Optional
	NameMap      Optional
}

func (s Set) Get(kind Kind) Optional {
	switch kind {
	case KindTeamProfile:
		return s.TeamProfile
	case KindStadium:
		return s.Stadium
	case KindReferee:
		return s.Referee
	case KindInjury:
		return s.Injury
	case KindLineup:
		return s.Lineup
	case KindHybridMetric:
		return s.HybridMetric
	case KindNameMap:
		return s.NameMap
	default:
		return Absent(ReasonNotFound)
	}
}

func (s *Set) Put(kind Kind, o Optional) {
	switch kind {
	case KindTeamProfile:
		s.TeamProfile = o
	case KindStadium:
		s.Stadium = o
	case KindReferee:
		s.Referee = o
	case KindInjury:
		s.Injury = o
	case KindLineup:
		s.Lineup = o
	case KindHybridMetric:
		s.HybridMetric = o
	case KindNameMap:
		s.NameMap = o
	}
}
