package cohort

import (
	"testing"
	"time"

	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestFollowUp(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		start int
		want  int
	}{
		{0, 7},
		{7, 7},
		{10, 10},
		{14, 14},
		{24, 14},
	}
	for _, tt := range tests {
		assert.Equal(t, today.AddDate(0, 0, tt.want), SuggestFollowUp(today, tt.start))
	}
}

func TestCriteria_Select(t *testing.T) {
	rows := []*engine.ScoredRow{
		{Record: engine.FeatureVector{"hba1c": 8.0, "creatinine": 1.5, "polypharmacy_n": 6}},
		{Record: engine.FeatureVector{"hba1c": 6.0, "creatinine": 1.5, "polypharmacy_n": 6}},
		{Record: engine.FeatureVector{"hba1c": 8.0, "creatinina": 1.0, "polifarmacia_n": 6}},
	}

	assert.Len(t, Criteria{}.Select(rows), 3)
	got := Criteria{MinHbA1c: 7, MinCreatinine: 1.2, MinPolypharmacy: 5}.Select(rows)
	require.Len(t, got, 1)
	assert.Same(t, rows[0], got[0])
}

func TestAgenda(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []*engine.ScoredRow{
		{RiskFactor: 0.2, TStartDays: 20},
		{RiskFactor: 0.6, TStartDays: 9},
	}
	a := Agenda(rows, today)
	require.Len(t, a, 2)
	assert.Same(t, rows[1], a[0].Row)
	assert.Equal(t, today.AddDate(0, 0, 9), a[0].Date)
	assert.Equal(t, today.AddDate(0, 0, 14), a[1].Date)
}
