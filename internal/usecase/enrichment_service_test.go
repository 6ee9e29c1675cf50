package usecase

import (
	"context"
	"strconv"
	"testing"

	"github.com/riskibarqy/match-features/internal/domain/match"
	"github.com/riskibarqy/match-features/internal/domain/reference"
	"github.com/riskibarqy/match-features/internal/platform/geo"
	"github.com/riskibarqy/match-features/internal/platform/logging"
	"github.com/riskibarqy/match-features/internal/platform/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(t *testing.T, rows ...[]string) *table.Table {
	t.Helper()
	tbl, err := table.FromRecords(rows)
	require.NoError(t, err)
	return tbl
}

func refSet(tables map[reference.Kind]*table.Table) reference.Set {
	var set reference.Set
	for _, schema := range reference.Schemas() {
		if tbl, ok := tables[schema.Kind]; ok {
			set.Put(schema.Kind, reference.Present(tbl))
			continue
		}
		set.Put(schema.Kind, reference.Absent(reference.ReasonNotFound))
	}
	return set
}

func enrich(t *testing.T, refs reference.Set, in *table.Table) *table.Table {
	t.Helper()
	out, _, err := NewEnricher(refs, NewDefaultTable(), logging.NewNop()).Enrich(context.Background(), in)
	require.NoError(t, err)
	return out
}

func fixtures(t *testing.T) *table.Table {
	return records(t,
		[]string{"date", "home_team", "away_team"},
		[]string{"2024-09-17", "X", "Y"},
	)
}

func fullReferenceSet(t *testing.T) reference.Set {
	return refSet(map[reference.Kind]*table.Table{
		reference.KindNameMap: records(t,
			[]string{"raw", "canonical"},
			[]string{"Man Utd", "Manchester United"},
		),
		reference.KindTeamProfile: records(t,
			[]string{"team", "gk_rating", "setpiece_rating", "crowd_index"},
			[]string{"Manchester United", "0.85", "0.70", "0.92"},
			[]string{"Chelsea", "0.75", "0.66", "0.81"},
		),
		reference.KindStadium: records(t,
			[]string{"team", "stadium", "lat", "lon"},
			[]string{"Manchester United", "Old Trafford", "53.4631", "-2.2913"},
			[]string{"Chelsea", "Stamford Bridge", "51.4817", "-0.1910"},
		),
		reference.KindReferee: records(t,
			[]string{"ref_name", "ref_pen_rate"},
			[]string{"J. Smith", "0.35"},
		),
		reference.KindInjury: records(t,
			[]string{"date", "team", "injury_index"},
			[]string{"2024-09-17", "Chelsea", "0.55"},
		),
		reference.KindLineup: records(t,
			[]string{"date", "team", "key_att_out", "key_def_out", "keeper_changed"},
			[]string{"17/09/2024", "Manchester United", "1.0", "", "true"},
		),
		reference.KindHybridMetric: records(t,
			[]string{"team", "league_id", "xg_hybrid", "xga_hybrid", "xgd_hybrid", "xgd90_hybrid"},
			[]string{"Chelsea", "39", "58.1", "41.3", "16.8", "0.44"},
		),
	})
}

func TestEnricher_EmptyTeamProfileUsesDefaults(t *testing.T) {
	refs := refSet(map[reference.Kind]*table.Table{
		reference.KindTeamProfile: table.New("team", "gk_rating", "setpiece_rating", "crowd_index"),
	})

	out := enrich(t, refs, fixtures(t))

	require.Equal(t, 1, out.Len())
	for col, want := range map[string]string{
		match.ColHomeGK:       "0.6",
		match.ColAwayGK:       "0.6",
		match.ColHomeSetpiece: "0.6",
		match.ColAwaySetpiece: "0.6",
		match.ColCrowdIndex:   "0.7",
	} {
		assert.Equal(t, want, out.Get(0, col).Text(), col)
	}
}

func TestEnricher_NoReferenceTablesFillsEverything(t *testing.T) {
	out := enrich(t, refSet(nil), fixtures(t))

	for _, col := range match.RequiredColumns {
		require.True(t, out.Has(col), "missing column %s", col)
	}
	for _, col := range []string{
		match.ColHomeRest, match.ColAwayRest, match.ColHomeInjury, match.ColAwayInjury,
		match.ColHomeGK, match.ColAwayGK, match.ColHomeSetpiece, match.ColAwaySetpiece,
		match.ColRefPenRate, match.ColCrowdIndex, match.ColHomeTravel, match.ColAwayTravel,
	} {
		assert.False(t, out.Get(0, col).IsNull(), "null %s", col)
	}
	for _, col := range match.FlagColumns() {
		assert.Equal(t, "0", out.Get(0, col).Text(), col)
	}
	assert.Equal(t, "4", out.Get(0, match.ColHomeRest).Text())
	assert.Equal(t, "0.3", out.Get(0, match.ColRefPenRate).Text())
	assert.Equal(t, "0", out.Get(0, match.ColHomeTravel).Text())
	assert.Equal(t, "200", out.Get(0, match.ColAwayTravel).Text())
	assert.False(t, out.Has(match.Home.Column(match.MetricXG)))
	assert.False(t, table.HasArtifacts(out))
}

func TestEnricher_RefereeRates(t *testing.T) {
	refs := refSet(map[reference.Kind]*table.Table{
		reference.KindReferee: records(t,
			[]string{"ref_name", "ref_pen_rate"},
			[]string{"J. Smith", "0.35"},
		),
	})
	in := records(t,
		[]string{"date", "home_team", "away_team", "ref_name"},
		[]string{"2024-09-17", "X", "Y", "J. Smith"},
		[]string{"2024-09-18", "X", "Y", "Unknown Ref"},
	)

	out := enrich(t, refs, in)

	assert.Equal(t, "0.35", out.Get(0, match.ColRefPenRate).Text())
	assert.Equal(t, "0.3", out.Get(1, match.ColRefPenRate).Text())
}

func TestEnricher_RefereeWithoutNameColumnKeepsExistingRates(t *testing.T) {
	refs := refSet(map[reference.Kind]*table.Table{
		reference.KindReferee: records(t,
			[]string{"ref_name", "ref_pen_rate"},
			[]string{"J. Smith", "0.35"},
		),
	})
	in := records(t,
		[]string{"date", "home_team", "away_team", "ref_pen_rate"},
		[]string{"2024-09-17", "X", "Y", "0.41"},
		[]string{"2024-09-18", "X", "Y", ""},
	)

	out := enrich(t, refs, in)

	assert.Equal(t, "0.41", out.Get(0, match.ColRefPenRate).Text())
	assert.Equal(t, "0.3", out.Get(1, match.ColRefPenRate).Text())
}

func TestEnricher_NameMappingResolvesTeamProfile(t *testing.T) {
	in := records(t,
		[]string{"date", "home_team", "away_team"},
		[]string{"2024-09-17", " Man Utd ", "Chelsea"},
	)

	out := enrich(t, fullReferenceSet(t), in)

	assert.Equal(t, "Manchester United", out.Get(0, match.ColHomeTeam).Text())
	assert.Equal(t, "0.85", out.Get(0, match.ColHomeGK).Text())
	assert.Equal(t, "0.70", out.Get(0, match.ColHomeSetpiece).Text())
	assert.Equal(t, "0.75", out.Get(0, match.ColAwayGK).Text())
	assert.Equal(t, "0.92", out.Get(0, match.ColCrowdIndex).Text())
}

func TestEnricher_ExistingCrowdIndexIsKept(t *testing.T) {
	in := records(t,
		[]string{"date", "home_team", "away_team", "crowd_index"},
		[]string{"2024-09-17", "Man Utd", "Chelsea", "0.55"},
		[]string{"2024-09-18", "Chelsea", "Man Utd", ""},
	)

	out := enrich(t, fullReferenceSet(t), in)

	assert.Equal(t, "0.55", out.Get(0, match.ColCrowdIndex).Text())
	assert.Equal(t, "0.7", out.Get(1, match.ColCrowdIndex).Text())
}

func TestEnricher_InjuriesAndLineupsJoinOnDateAndTeam(t *testing.T) {
	in := records(t,
		[]string{"date", "home_team", "away_team"},
		[]string{"2024-09-17 15:00:00", "Man Utd", "Chelsea"},
		[]string{"2024-09-24", "Man Utd", "Chelsea"},
	)

	out := enrich(t, fullReferenceSet(t), in)

	assert.Equal(t, "0.3", out.Get(0, match.ColHomeInjury).Text())
	assert.Equal(t, "0.55", out.Get(0, match.ColAwayInjury).Text())
	assert.Equal(t, "0.3", out.Get(1, match.ColAwayInjury).Text())

	assert.Equal(t, "1", out.Get(0, match.Home.Column(match.FlagKeyAttOut)).Text())
	assert.Equal(t, "0", out.Get(0, match.Home.Column(match.FlagKeyDefOut)).Text())
	assert.Equal(t, "1", out.Get(0, match.Home.Column(match.FlagKeeperChange)).Text())
	for _, col := range match.FlagColumns() {
		assert.Equal(t, "0", out.Get(1, col).Text(), col)
	}

	assert.Equal(t, "2024-09-17 15:00:00", out.Get(0, match.ColDate).Text())
}

func TestEnricher_TravelDistance(t *testing.T) {
	refs := refSet(map[reference.Kind]*table.Table{
		reference.KindStadium: records(t,
			[]string{"team", "stadium", "lat", "lon"},
			[]string{"London FC", "A", "51.5074", "-0.1278"},
			[]string{"Madrid FC", "B", "40.4168", "-3.7038"},
		),
	})
	in := records(t,
		[]string{"date", "home_team", "away_team", "away_travel_km"},
		[]string{"2024-09-17", "London FC", "Madrid FC", ""},
		[]string{"2024-09-18", "London FC", "Nowhere", ""},
		[]string{"2024-09-19", "London FC", "Madrid FC", "12.5"},
	)

	out := enrich(t, refs, in)

	km, err := strconv.ParseFloat(out.Get(0, match.ColAwayTravel).Text(), 64)
	require.NoError(t, err)
	assert.InDelta(t, 1264, km, 5)
	want := table.Float(geo.Haversine(51.5074, -0.1278, 40.4168, -3.7038)).Text()
	assert.Equal(t, want, out.Get(0, match.ColAwayTravel).Text(), "distance is stored unrounded")
	assert.Equal(t, "200", out.Get(1, match.ColAwayTravel).Text())
	assert.Equal(t, "12.5", out.Get(2, match.ColAwayTravel).Text())
	assert.Equal(t, "0", out.Get(0, match.ColHomeTravel).Text())

	for _, col := range transientColumns {
		assert.False(t, out.Has(col), "transient column %s left behind", col)
	}
}

func TestEnricher_KeepsCoordinateAndCrowdColumnsFromInput(t *testing.T) {
	in := records(t,
		[]string{"date", "home_team", "away_team", "ref_name", "home_lat", "home_crowd_index"},
		[]string{"2024-09-17", "Man Utd", "Chelsea", "J. Smith", "53.4631", "0.5"},
	)

	out := enrich(t, fullReferenceSet(t), in)

	require.True(t, out.Has("home_lat"))
	require.True(t, out.Has("home_crowd_index"))
	assert.Equal(t, "53.4631", out.Get(0, "home_lat").Text())
	assert.Equal(t, "0.5", out.Get(0, "home_crowd_index").Text())
	for _, col := range []string{"home_lon", "away_lat", "away_lon"} {
		assert.False(t, out.Has(col), "column %s was not in the input", col)
	}

	km, err := strconv.ParseFloat(out.Get(0, match.ColAwayTravel).Text(), 64)
	require.NoError(t, err)
	assert.InDelta(t, 262, km, 5)

	again := enrich(t, fullReferenceSet(t), out)
	assert.True(t, again.Equal(out), "re-enrichment must be stable")
}

func TestEnricher_FoldsMergeVariantsFromInput(t *testing.T) {
	in := records(t,
		[]string{"date", "home_team", "away_team", "home_gk_rating_x", "home_gk_rating_y", "ref_pen_rate_x"},
		[]string{"2024-09-17", "X", "Y", "0.8", "", "0.4"},
		[]string{"2024-09-18", "X", "Y", "", "0.7", ""},
	)

	out := enrich(t, refSet(nil), in)

	assert.False(t, table.HasArtifacts(out), "artifacts left: %v", table.Artifacts(out))
	assert.Equal(t, "0.8", out.Get(0, match.ColHomeGK).Text())
	assert.Equal(t, "0.7", out.Get(1, match.ColHomeGK).Text())
	assert.Equal(t, "0.4", out.Get(0, match.ColRefPenRate).Text())
	assert.Equal(t, "0.3", out.Get(1, match.ColRefPenRate).Text())
}

func TestEnricher_HybridMetrics(t *testing.T) {
	in := records(t,
		[]string{"date", "home_team", "away_team", "league_id"},
		[]string{"2024-09-17", "Man Utd", "Chelsea", "39.0"},
	)

	out := enrich(t, fullReferenceSet(t), in)

	assert.Equal(t, "58.1", out.Get(0, match.Away.Column(match.MetricXG)).Text())
	assert.Equal(t, "41.3", out.Get(0, match.Away.Column(match.MetricXGA)).Text())
	assert.Equal(t, "16.8", out.Get(0, match.Away.Column(match.MetricXGD)).Text())
	assert.Equal(t, "0.44", out.Get(0, match.Away.Column(match.MetricXGDPer90)).Text())
	assert.True(t, out.Get(0, match.Home.Column(match.MetricXG)).IsNull())
}

func TestEnricher_IsIdempotent(t *testing.T) {
	refs := fullReferenceSet(t)
	in := records(t,
		[]string{"date", "home_team", "away_team", "ref_name", "home_odds_dec", "league_id"},
		[]string{"2024-09-17", "Man Utd", "Chelsea", "J. Smith", "2.10", "39"},
		[]string{"2024-09-18", "Chelsea", "Arsenal", "Unknown Ref", "", ""},
	)
	enricher := NewEnricher(refs, NewDefaultTable(), logging.NewNop())

	first, _, err := enricher.Enrich(context.Background(), in)
	require.NoError(t, err)
	second, _, err := enricher.Enrich(context.Background(), first)
	require.NoError(t, err)

	assert.Equal(t, first.Records(), second.Records())
	assert.Empty(t, table.Artifacts(second))
	assert.Equal(t, 2, second.Len())
}

func TestEnricher_DoesNotMutateInput(t *testing.T) {
	in := fixtures(t)
	before := in.Clone()

	_ = enrich(t, fullReferenceSet(t), in)

	assert.True(t, before.Equal(in))
}

func TestEnricher_StepReport(t *testing.T) {
	refs := refSet(map[reference.Kind]*table.Table{
		reference.KindReferee: records(t, []string{"ref_name", "ref_pen_rate"}, []string{"J. Smith", "0.35"}),
	})
	_, report, err := NewEnricher(refs, NewDefaultTable(), logging.NewNop()).Enrich(context.Background(), fixtures(t))
	require.NoError(t, err)

	require.Len(t, report.Steps, 9)
	assert.Equal(t, StepDefaulted, report.Outcome(StepTeamProfile))
	assert.Equal(t, StepDefaulted, report.Outcome(StepReferee))
	assert.Equal(t, StepSkipped, report.Outcome(StepHybridMetrics))
	assert.Equal(t, StepApplied, report.Outcome(StepFinalDefaults))
}

func TestDateKey(t *testing.T) {
	tests := map[string]string{
		"2024-09-17":           "2024-09-17",
		"2024-09-17T19:45:00Z": "2024-09-17",
		"2024-09-17 19:45:00":  "2024-09-17",
		"17/09/2024":           "2024-09-17",
		"17/09/24":             "2024-09-17",
		" week 3 ":             "week 3",
	}
	for raw, want := range tests {
		got, ok := DateKey(table.String(raw))
		if !ok || got != want {
			t.Fatalf("date key %q: got=%q ok=%v want=%q", raw, got, ok, want)
		}
	}
	if _, ok := DateKey(table.Null()); ok {
		t.Fatalf("expected null date to be unmatchable")
	}
}

func TestNumericKey(t *testing.T) {
	tests := map[string]string{
		"39":   "39",
		"39.0": "39",
		"1.5":  "1.5",
		"EPL":  "epl",
	}
	for raw, want := range tests {
		got, ok := NumericKey(table.String(raw))
		if !ok || got != want {
			t.Fatalf("numeric key %q: got=%q ok=%v want=%q", raw, got, ok, want)
		}
	}
}
