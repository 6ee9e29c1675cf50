package usecase

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/match-features/internal/domain/match"
	"github.com/riskibarqy/match-features/internal/domain/reference"
	"github.com/riskibarqy/match-features/internal/domain/teamname"
	"github.com/riskibarqy/match-features/internal/platform/geo"
	"github.com/riskibarqy/match-features/internal/platform/logging"
	"github.com/riskibarqy/match-features/internal/platform/table"
	"go.opentelemetry.io/otel/attribute"
)

// Pipeline step names, in execution order.
const (
	StepNormalizeNames = "normalize_names"
	StepBaseColumns    = "base_columns"
	StepTeamProfile    = "team_profile"
	StepInjuries       = "injuries"
	StepLineups        = "lineups"
	StepReferee        = "referee"
	StepTravel         = "travel"
	StepHybridMetrics  = "hybrid_metrics"
	StepFinalDefaults  = "final_defaults"
)

type StepOutcome string

const (
	StepApplied   StepOutcome = "applied"
	StepJoined    StepOutcome = "joined"
	StepDefaulted StepOutcome = "defaulted"
	StepSkipped   StepOutcome = "skipped"
)

type StepResult struct {
	Step    string      `json:"step"`
	Outcome StepOutcome `json:"outcome"`
}

// StepReport records how each step resolved for one match table.
type StepReport struct {
	Steps []StepResult `json:"steps"`
}

func (r *StepReport) add(step string, outcome StepOutcome) {
	r.Steps = append(r.Steps, StepResult{Step: step, Outcome: outcome})
}

// Outcome returns the recorded outcome of step, or "" when it did not run.
func (r StepReport) Outcome(step string) StepOutcome {
	for _, s := range r.Steps {
		if s.Step == step {
			return s.Outcome
		}
	}
	return ""
}

// Columns joined for the duration of one Enrich call only. They are kept when
// the input already carries them.
var transientColumns = []string{
	match.Home.Column(reference.ColCrowdIndex),
	match.Home.Column(reference.ColLat),
	match.Home.Column(reference.ColLon),
	match.Away.Column(reference.ColLat),
	match.Away.Column(reference.ColLon),
}

var hybridFields = []struct {
	source string
	metric string
}{
	{source: reference.ColXGHybrid, metric: match.MetricXG},
	{source: reference.ColXGAHybrid, metric: match.MetricXGA},
	{source: reference.ColXGDHybrid, metric: match.MetricXGD},
	{source: reference.ColXGD90Hybrid, metric: match.MetricXGDPer90},
}

// Enricher turns partially populated match tables into fully defaulted
// feature tables. It holds read-only reference tables and is safe for
// concurrent use across match tables.
type Enricher struct {
	refs       reference.Set
	defaults   DefaultTable
	normalizer *teamname.Normalizer
	logger     *logging.Logger
}

// NewEnricher normalizes the team column of every side table once so joins
// compare canonical names on both sides.
func NewEnricher(refs reference.Set, defaults DefaultTable, logger *logging.Logger) *Enricher {
	if len(defaults.entries) == 0 {
		defaults = NewDefaultTable()
	}

	mapping := teamname.MappingFromTable(refs.NameMap.Table(), reference.ColRaw, reference.ColCanonical)
	if chains := mapping.Chains(); len(chains) > 0 {
		logger.Warn("name mapping chains detected", "raw_names", chains)
	}
	normalizer := teamname.NewNormalizer(mapping)

	var normalized reference.Set
	for _, schema := range reference.Schemas() {
		opt := refs.Get(schema.Kind)
		if schema.HasTeam && opt.Present() {
			t := opt.Table().Clone()
			normalizer.NormalizeColumn(t, reference.ColTeam)
			opt = reference.Present(t)
		}
		normalized.Put(schema.Kind, opt)
	}

	return &Enricher{
		refs:       normalized,
		defaults:   defaults,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Enrich runs every pipeline step on a copy of in and returns the result.
// The input table is not modified.
func (e *Enricher) Enrich(ctx context.Context, in *table.Table) (*table.Table, StepReport, error) {
	ctx, span := startStepSpan(ctx, "usecase.Enricher.Enrich")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", in.Len()))

	t := in.Clone()
	var report StepReport

	var scratch []string
	for _, col := range transientColumns {
		if !in.Has(col) {
			scratch = append(scratch, col)
		}
	}

	steps := []struct {
		name string
		fn   func(*table.Table) (StepOutcome, error)
	}{
		{StepNormalizeNames, e.normalizeNames},
		{StepBaseColumns, e.ensureBaseColumns},
		{StepTeamProfile, e.joinTeamProfile},
		{StepInjuries, e.joinInjuries},
		{StepLineups, e.joinLineups},
		{StepReferee, e.joinReferee},
		{StepTravel, e.computeTravel},
		{StepHybridMetrics, e.joinHybridMetrics},
		{StepFinalDefaults, e.applyFinalDefaults},
	}
	for _, step := range steps {
		outcome, err := step.fn(t)
		if err != nil {
			span.RecordError(err)
			return nil, report, err
		}
		report.add(step.name, outcome)
		e.logger.DebugContext(ctx, "enrichment step done", "step", step.name, "outcome", string(outcome))
	}

	t.Drop(scratch...)
	return t, report, nil
}

func (e *Enricher) normalizeNames(t *table.Table) (StepOutcome, error) {
	for _, side := range match.Sides {
		e.normalizer.NormalizeColumn(t, side.TeamColumn())
	}
	return StepApplied, nil
}

// ensureBaseColumns also folds merge variants left in the input by an earlier
// tool, so their values take part in the joins as base values.
func (e *Enricher) ensureBaseColumns(t *table.Table) (StepOutcome, error) {
	for _, col := range match.BaseColumns {
		table.Ensure(t, col, table.Null())
	}
	for _, d := range e.defaults.entries {
		if t.Has(d.Column+table.SuffixLeft) || t.Has(d.Column+table.SuffixRight) {
			table.Coalesce(t, d.Column, table.Null())
		}
	}
	return StepApplied, nil
}

func (e *Enricher) joinTeamProfile(t *table.Table) (StepOutcome, error) {
	ratings := []string{reference.ColGKRating, reference.ColSetpieceRating}
	fallback := e.defaults.Value(match.ColCrowdIndex)

	profiles := e.refs.TeamProfile
	if !profiles.Present() {
		for _, side := range match.Sides {
			for _, rating := range ratings {
				col := side.Column(rating)
				table.Ensure(t, col, e.defaults.Value(col))
			}
		}
		table.Ensure(t, match.ColCrowdIndex, fallback)
		return StepDefaulted, nil
	}

	homeCrowd := match.Home.Column(reference.ColCrowdIndex)
	for _, side := range match.Sides {
		fields := make([]table.Field, 0, len(ratings)+1)
		for _, rating := range ratings {
			target := side.Column(rating)
			fields = append(fields, table.Field{Source: rating, Target: target, Fallback: e.defaults.Value(target)})
		}
		if side == match.Home {
			fields = append(fields, table.Field{Source: reference.ColCrowdIndex, Target: homeCrowd})
		}
		err := table.JoinCoalesce(t, profiles.Table(), table.JoinSpec{
			LeftKeys:  []string{side.TeamColumn()},
			RightKeys: []string{reference.ColTeam},
			KeyFuncs:  []table.KeyFunc{teamname.Key},
			Fields:    fields,
		})
		if err != nil {
			return "", err
		}
	}

	if t.AllNull(match.ColCrowdIndex) {
		table.Ensure(t, match.ColCrowdIndex, table.Null())
		for i := 0; i < t.Len(); i++ {
			t.Set(i, match.ColCrowdIndex, t.Get(i, homeCrowd))
		}
	}
	table.FillNull(t, match.ColCrowdIndex, fallback)
	return StepJoined, nil
}

func (e *Enricher) joinInjuries(t *table.Table) (StepOutcome, error) {
	injuries := e.refs.Injury
	if !injuries.Present() {
		for _, side := range match.Sides {
			col := side.Column(reference.ColInjuryIndex)
			table.Ensure(t, col, e.defaults.Value(col))
		}
		return StepDefaulted, nil
	}

	for _, side := range match.Sides {
		target := side.Column(reference.ColInjuryIndex)
		err := table.JoinCoalesce(t, injuries.Table(), table.JoinSpec{
			LeftKeys:  []string{match.ColDate, side.TeamColumn()},
			RightKeys: []string{reference.ColDate, reference.ColTeam},
			KeyFuncs:  []table.KeyFunc{DateKey, teamname.Key},
			Fields:    []table.Field{{Source: reference.ColInjuryIndex, Target: target, Fallback: e.defaults.Value(target)}},
		})
		if err != nil {
			return "", err
		}
	}
	return StepJoined, nil
}

func (e *Enricher) joinLineups(t *table.Table) (StepOutcome, error) {
	lineups := e.refs.Lineup
	outcome := StepDefaulted

	if lineups.Present() {
		for _, side := range match.Sides {
			fields := make([]table.Field, 0, len(match.LineupFlags))
			for _, flag := range match.LineupFlags {
				target := side.Column(flag)
				fields = append(fields, table.Field{Source: flag, Target: target, Fallback: e.defaults.Value(target)})
			}
			err := table.JoinCoalesce(t, lineups.Table(), table.JoinSpec{
				LeftKeys:  []string{match.ColDate, side.TeamColumn()},
				RightKeys: []string{reference.ColDate, reference.ColTeam},
				KeyFuncs:  []table.KeyFunc{DateKey, teamname.Key},
				Fields:    fields,
			})
			if err != nil {
				return "", err
			}
		}
		outcome = StepJoined
	}

	for _, col := range match.FlagColumns() {
		table.Ensure(t, col, e.defaults.Value(col))
		table.FillNull(t, col, e.defaults.Value(col))
		for i := 0; i < t.Len(); i++ {
			t.Set(i, col, table.Int(t.Get(i, col).Flag()))
		}
	}
	return outcome, nil
}

func (e *Enricher) joinReferee(t *table.Table) (StepOutcome, error) {
	fallback := e.defaults.Value(match.ColRefPenRate)
	referees := e.refs.Referee

	if !t.Has(match.ColRefName) || !referees.Present() || referees.Table().Len() == 0 {
		table.Ensure(t, match.ColRefPenRate, fallback)
		table.FillNull(t, match.ColRefPenRate, fallback)
		return StepDefaulted, nil
	}

	err := table.JoinCoalesce(t, referees.Table(), table.JoinSpec{
		LeftKeys:  []string{match.ColRefName},
		RightKeys: []string{reference.ColRefName},
		Fields:    []table.Field{{Source: reference.ColRefPenRate, Target: match.ColRefPenRate, Fallback: fallback}},
	})
	if err != nil {
		return "", err
	}
	return StepJoined, nil
}

func (e *Enricher) computeTravel(t *table.Table) (StepOutcome, error) {
	homeFallback := e.defaults.Value(match.ColHomeTravel)
	awayFallback := e.defaults.Value(match.ColAwayTravel)

	table.Ensure(t, match.ColHomeTravel, homeFallback)
	table.FillNull(t, match.ColHomeTravel, homeFallback)

	stadiums := e.refs.Stadium
	if !stadiums.Present() {
		table.Ensure(t, match.ColAwayTravel, awayFallback)
		table.FillNull(t, match.ColAwayTravel, awayFallback)
		return StepDefaulted, nil
	}

	for _, side := range match.Sides {
		err := table.JoinCoalesce(t, stadiums.Table(), table.JoinSpec{
			LeftKeys:  []string{side.TeamColumn()},
			RightKeys: []string{reference.ColTeam},
			KeyFuncs:  []table.KeyFunc{teamname.Key},
			Fields: []table.Field{
				{Source: reference.ColLat, Target: side.Column(reference.ColLat)},
				{Source: reference.ColLon, Target: side.Column(reference.ColLon)},
			},
		})
		if err != nil {
			return "", err
		}
	}

	table.Ensure(t, match.ColAwayTravel, table.Null())
	for i := 0; i < t.Len(); i++ {
		if !t.Get(i, match.ColAwayTravel).IsNull() {
			continue
		}
		home, homeOK := stadiumPoint(t, i, match.Home)
		away, awayOK := stadiumPoint(t, i, match.Away)
		if !homeOK || !awayOK {
			t.Set(i, match.ColAwayTravel, awayFallback)
			continue
		}
		t.Set(i, match.ColAwayTravel, table.Float(geo.Distance(home, away)))
	}
	return StepJoined, nil
}

func stadiumPoint(t *table.Table, row int, side match.Side) (geo.Point, bool) {
	lat, latOK := t.Get(row, side.Column(reference.ColLat)).Float64()
	lon, lonOK := t.Get(row, side.Column(reference.ColLon)).Float64()
	if !latOK || !lonOK {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lon: lon}, true
}

// joinHybridMetrics never applies a fallback: a null metric means no
// advanced-stats coverage.
func (e *Enricher) joinHybridMetrics(t *table.Table) (StepOutcome, error) {
	metrics := e.refs.HybridMetric
	if !metrics.Present() {
		return StepSkipped, nil
	}

	byLeague := !t.AllNull(match.ColLeagueID) && !metrics.Table().AllNull(reference.ColLeagueID)
	for _, side := range match.Sides {
		spec := table.JoinSpec{
			LeftKeys:  []string{side.TeamColumn()},
			RightKeys: []string{reference.ColTeam},
			KeyFuncs:  []table.KeyFunc{teamname.Key},
		}
		if byLeague {
			spec.LeftKeys = append(spec.LeftKeys, match.ColLeagueID)
			spec.RightKeys = append(spec.RightKeys, reference.ColLeagueID)
			spec.KeyFuncs = append(spec.KeyFuncs, NumericKey)
		}
		for _, f := range hybridFields {
			spec.Fields = append(spec.Fields, table.Field{Source: f.source, Target: side.Column(f.metric)})
		}
		if err := table.JoinCoalesce(t, metrics.Table(), spec); err != nil {
			return "", err
		}
	}
	return StepJoined, nil
}

// applyFinalDefaults folds any leftover merge variants and fills every
// documented field that is still null.
func (e *Enricher) applyFinalDefaults(t *table.Table) (StepOutcome, error) {
	for _, d := range e.defaults.entries {
		table.Coalesce(t, d.Column, e.defaults.Value(d.Column))
	}
	return StepApplied, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02/01/06",
}

// DateKey matches dates on their calendar day when the text parses,
// otherwise on the trimmed text.
func DateKey(v table.Value) (string, bool) {
	key, ok := table.TrimmedKey(v)
	if !ok {
		return "", false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, key); err == nil {
			return ts.Format("2006-01-02"), true
		}
	}
	return key, true
}

// NumericKey matches integral numbers regardless of formatting, so "39"
// and "39.0" join.
func NumericKey(v table.Value) (string, bool) {
	key, ok := table.TrimmedKey(v)
	if !ok {
		return "", false
	}
	f, err := strconv.ParseFloat(key, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return strings.ToLower(key), true
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}
