package sample

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mchmarny/riskpulse/pkg/cohort"
	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/mchmarny/riskpulse/pkg/table"
)

var (
	sexes       = []weighted{{"M", 0.55}, {"F", 0.45}}
	smokers     = []weighted{{"No", 0.70}, {"Ex", 0.15}, {"Sí", 0.15}}
	ckdStages   = []weighted{{"No", 0.55}, {"1", 0.06}, {"2", 0.13}, {"3a", 0.12}, {"3b", 0.08}, {"4", 0.04}, {"5", 0.02}}
	departments = []weighted{
		{"Clinics", 0.34}, {"Administration", 0.28}, {"Teaching", 0.16},
		{"Research", 0.12}, {"General Services", 0.10},
	}

	// share of "Sí" per yes/no feature
	yesShares = []struct {
		name string
		p    float64
	}{
		{"diabetes", 0.28},
		{"htn", 0.65},
		{"statin", 0.45},
		{"ace_arb", 0.50},
		{"sglt2", 0.20},
		{"glp1", 0.15},
		{"prior_cv", 0.15},
	}
)

// Population generates n subjects carrying all 18 model features. With
// departments set each subject also gets a department and an employee id.
func Population(n int, seed uint64, withDepartment bool) []cohort.Subject {
	s := newSource(seed)
	out := make([]cohort.Subject, n)

	for i := range out {
		v := engine.FeatureVector{
			"age":       22 + s.rng.IntN(52),
			"sex":       s.choice(sexes),
			"sbp":       round(s.normal(132, 16, 95, 200), 1),
			"dbp":       round(s.normal(82, 10, 55, 120), 1),
			"hba1c":     round(s.normal(6.3, 1.2, 4.8, 12.5), 1),
			"ldl":       round(s.normal(118, 35, 40, 240), 1),
			"egfr":      round(s.normal(85, 18, 20, 125), 1),
			"uacr":      round(math.Min(1000, math.Exp(math.Log(25)+s.rng.NormFloat64())), 1),
			"bmi":       round(s.normal(28.5, 4.5, 18, 45), 1),
			"smoker":    s.choice(smokers),
			"ckd_stage": s.choice(ckdStages),
		}
		for _, y := range yesShares {
			v[y.name] = s.choice([]weighted{{"No", 1 - y.p}, {"Sí", y.p}})
		}

		out[i] = cohort.Subject{ID: fmt.Sprintf("S-%05d", i+1), Record: v}
		if withDepartment {
			out[i].ID = fmt.Sprintf("E-%05d", 10000+i)
			out[i].Department = s.choice(departments)
		}
	}
	return out
}

// PopulationTable renders subjects as a CSV table with the canonical feature
// columns, preceded by id and department columns.
func PopulationTable(ft *engine.FeatureTable, subjects []cohort.Subject) *table.Table {
	t := &table.Table{Columns: append([]string{"employee_id", "department"}, ft.Columns()...)}
	for _, s := range subjects {
		row := []string{s.ID, s.Department}
		for _, c := range ft.Columns() {
			row = append(row, format(s.Record[c]))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// SubjectsFromTable reads subjects back from a population table. The
// employee_id and department columns are optional.
func SubjectsFromTable(t *table.Table) []cohort.Subject {
	vecs := t.Vectors()
	out := make([]cohort.Subject, len(vecs))
	for i, v := range vecs {
		id, _ := v.Label("employee_id")
		if id == "" {
			id = fmt.Sprintf("S-%05d", i+1)
		}
		dept, _ := v.Label("department")
		out[i] = cohort.Subject{ID: id, Department: dept, Record: v}
	}
	return out
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
