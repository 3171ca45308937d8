package sample

import (
	"testing"
	"time"

	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulation(t *testing.T) {
	ft := engine.DefaultFeatureTable()
	subs := Population(200, DefaultSeed, true)
	require.Len(t, subs, 200)

	assert.Equal(t, "E-10000", subs[0].ID)
	for _, s := range subs {
		assert.NotEmpty(t, s.Department)
		for _, c := range ft.Columns() {
			assert.Contains(t, s.Record, c)
		}
		age, ok := s.Record.Number("age")
		require.True(t, ok)
		assert.GreaterOrEqual(t, age, 22.0)
		assert.Less(t, age, 74.0)

		hba, _ := s.Record.Number("hba1c")
		assert.GreaterOrEqual(t, hba, 4.8)
		assert.LessOrEqual(t, hba, 12.5)
	}

	// every subject scores through the engine
	e := engine.New(ft)
	_, err := e.Compute(subs[0].Record, 24)
	assert.NoError(t, err)
}

func TestPopulation_Seeded(t *testing.T) {
	assert.Equal(t, Population(20, 7, false), Population(20, 7, false))
	assert.NotEqual(t, Population(20, 7, false), Population(20, 8, false))

	subs := Population(3, 7, false)
	assert.Equal(t, "S-00001", subs[0].ID)
	assert.Empty(t, subs[0].Department)
}

func TestPopulationTable_RoundTrip(t *testing.T) {
	ft := engine.DefaultFeatureTable()
	subs := Population(12, 3, true)

	tbl := PopulationTable(ft, subs)
	require.NoError(t, ft.ValidateColumns(tbl.Columns))
	require.Len(t, tbl.Rows, 12)

	back := SubjectsFromTable(tbl)
	require.Len(t, back, 12)
	assert.Equal(t, subs[4].ID, back[4].ID)
	assert.Equal(t, subs[4].Department, back[4].Department)

	e := engine.New(ft)
	a, err := e.Compute(subs[4].Record, 24)
	require.NoError(t, err)
	b, err := e.Compute(back[4].Record, 24)
	require.NoError(t, err)
	assert.InDelta(t, a.RiskPercent, b.RiskPercent, 1e-9)
}

func TestCensus(t *testing.T) {
	today := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	eps, err := Census(50, DefaultSeed, today)
	require.NoError(t, err)
	require.Len(t, eps, 50)

	seen := map[string]bool{}
	for _, e := range eps {
		assert.False(t, seen[e.PatientID.String()])
		seen[e.PatientID.String()] = true

		assert.False(t, e.AdmittedOn.After(today))
		assert.GreaterOrEqual(t, e.LengthOfStay(), 1)
		assert.LessOrEqual(t, e.LengthOfStay(), 21)
		assert.GreaterOrEqual(t, e.Creatinine, 0.4)
		assert.LessOrEqual(t, e.Polypharmacy, 18)
		assert.LessOrEqual(t, e.PriorAdmissions6m, 2)
		assert.NotEmpty(t, e.DxSecondary)
		assert.LessOrEqual(t, len(e.DxSecondary), 3)
	}

	again, err := Census(50, DefaultSeed, today)
	require.NoError(t, err)
	assert.Equal(t, eps[0].PatientID, again[0].PatientID)
	assert.Equal(t, eps[49].Creatinine, again[49].Creatinine)
}

func TestCensusTable_Scores(t *testing.T) {
	eps, err := Census(25, 9, time.Now())
	require.NoError(t, err)

	tbl := CensusTable(eps)
	assert.Equal(t, CensusColumns, tbl.Columns)
	require.NoError(t, engine.ValidateBatchColumns(tbl.Columns))

	rows, err := engine.ScoreBatch(t.Context(), tbl.Vectors(), 1)
	require.NoError(t, err)
	assert.Len(t, rows, 25)

	direct := make([]engine.FeatureVector, len(eps))
	for i, e := range eps {
		direct[i] = e.Vector()
	}
	rows2, err := engine.ScoreBatch(t.Context(), direct, 1)
	require.NoError(t, err)
	assert.InDelta(t, rows[3].RiskFactor, rows2[3].RiskFactor, 1e-9)
}
