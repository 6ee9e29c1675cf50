package teamname

import (
	"testing"

	"github.com/riskibarqy/match-features/internal/platform/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Normalize(t *testing.T) {
	m := NewMapping()
	m.Add("Man Utd", "Manchester United")
	m.Add(" Spurs ", " Tottenham Hotspur ")
	n := NewNormalizer(m)

	tests := []struct {
		name string
		in   table.Value
		want table.Value
	}{
		{name: "mapped", in: table.String("Man Utd"), want: table.String("Manchester United")},
		{name: "mapped after trim", in: table.String("  Man Utd "), want: table.String("Manchester United")},
		{name: "canonical trimmed", in: table.String("Spurs"), want: table.String("Tottenham Hotspur")},
		{name: "unmapped is trimmed", in: table.String(" Arsenal "), want: table.String("Arsenal")},
		{name: "null passes through", in: table.Null(), want: table.Null()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Normalize(tc.in)
			if !got.Equal(tc.want) {
				t.Fatalf("normalize: got=%q(null=%t) want=%q", got.Text(), got.IsNull(), tc.want.Text())
			}
		})
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	m := NewMapping()
	m.Add("Man Utd", "Manchester United")
	m.Add("Inter", "Internazionale")
	n := NewNormalizer(m)

	for _, raw := range []string{"Man Utd", "Inter", "Internazionale", " Roma ", ""} {
		once := n.Normalize(table.String(raw))
		twice := n.Normalize(once)
		assert.True(t, once.Equal(twice), "normalize(%q) not idempotent", raw)
	}
}

func TestMapping_NFCComposedLookup(t *testing.T) {
	m := NewMapping()
	m.Add("Atle\u0301tico Madrid", "Atletico Madrid")

	got := NewNormalizer(m).Normalize(table.String("Atl\u00e9tico Madrid"))
	assert.Equal(t, "Atletico Madrid", got.Text())
}

func TestMappingFromTable_DropsBlankRowsAndLastDuplicateWins(t *testing.T) {
	tbl, err := table.FromRecords([][]string{
		{"raw", "canonical"},
		{"Man Utd", "Manchester Utd"},
		{"", "Arsenal"},
		{"Gunners", ""},
		{"Man Utd", "Manchester United"},
	})
	require.NoError(t, err)

	m := MappingFromTable(tbl, "raw", "canonical")
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, "Manchester United", NewNormalizer(m).Normalize(table.String("Man Utd")).Text())
}

func TestMapping_ChainsAreReportedNotFollowed(t *testing.T) {
	m := NewMapping()
	m.Add("MUFC", "Man Utd")
	m.Add("Man Utd", "Manchester United")

	assert.Equal(t, []string{"MUFC"}, m.Chains())
	assert.Equal(t, "Man Utd", NewNormalizer(m).Normalize(table.String("MUFC")).Text())
}

func TestNormalizeColumn(t *testing.T) {
	m := NewMapping()
	m.Add("Man Utd", "Manchester United")

	tbl := table.New("home_team")
	tbl.AppendRow(map[string]table.Value{"home_team": table.String("Man Utd")})
	tbl.AppendRow(map[string]table.Value{"home_team": table.Null()})

	n := NewNormalizer(m)
	n.NormalizeColumn(tbl, "home_team")
	n.NormalizeColumn(tbl, "missing")

	assert.Equal(t, "Manchester United", tbl.Get(0, "home_team").Text())
	assert.True(t, tbl.Get(1, "home_team").IsNull())
	assert.False(t, tbl.Has("missing"))
}
