package sample

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/mchmarny/riskpulse/pkg/table"
)

const dateLayout = "2006-01-02"

var (
	services       = []string{"Internal Medicine", "Cardiology", "Nephrology", "Surgery", "ICU", "Emergency Observation"}
	icd10          = []string{"I50", "I21", "N18", "E11", "I10", "E78", "J44", "K21", "F41"}
	municipalities = []string{"Bogotá", "Medellín", "Cali", "Barranquilla", "Monterrey", "CDMX", "Guadalajara", "Puebla"}

	// CensusColumns is the header of a discharge census table.
	CensusColumns = []string{
		"patient_id", "episode_id", "admitted_on", "planned_discharge_on", "age", "sex",
		"dx_primary", "dx_secondary", "creatinine", "hba1c", "sbp", "dbp",
		"polypharmacy_n", "admissions_6m", "service", "municipality",
	}
)

// Episode is one hospital stay in a discharge census.
type Episode struct {
	PatientID         uuid.UUID `json:"patient_id" yaml:"patientID"`
	EpisodeID         uuid.UUID `json:"episode_id" yaml:"episodeID"`
	AdmittedOn        time.Time `json:"admitted_on" yaml:"admittedOn"`
	PlannedDischarge  time.Time `json:"planned_discharge_on" yaml:"plannedDischargeOn"`
	Age               int       `json:"age" yaml:"age"`
	Sex               string    `json:"sex" yaml:"sex"`
	DxPrimary         string    `json:"dx_primary" yaml:"dxPrimary"`
	DxSecondary       []string  `json:"dx_secondary" yaml:"dxSecondary"`
	Creatinine        float64   `json:"creatinine" yaml:"creatinine"`
	HbA1c             float64   `json:"hba1c" yaml:"hba1c"`
	SBP               int       `json:"sbp" yaml:"sbp"`
	DBP               int       `json:"dbp" yaml:"dbp"`
	Polypharmacy      int       `json:"polypharmacy_n" yaml:"polypharmacyN"`
	PriorAdmissions6m int       `json:"admissions_6m" yaml:"admissions6m"`
	Service           string    `json:"service" yaml:"service"`
	Municipality      string    `json:"municipality" yaml:"municipality"`
}

// LengthOfStay is the planned stay in days.
func (e *Episode) LengthOfStay() int {
	return int(e.PlannedDischarge.Sub(e.AdmittedOn).Hours() / 24)
}

// Census generates n discharge episodes admitted in the days before today.
// Identifiers come from a ChaCha8 stream so they are stable for a seed.
func Census(n int, seed uint64, today time.Time) ([]*Episode, error) {
	s := newSource(seed)
	ids := rand.NewChaCha8(chachaSeed(seed))
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]*Episode, n)
	for i := range out {
		pid, err := uuid.NewRandomFromReader(ids)
		if err != nil {
			return nil, err
		}
		eid, err := uuid.NewRandomFromReader(ids)
		if err != nil {
			return nil, err
		}

		admitted := today.AddDate(0, 0, -int(s.normal(6, 4, 0, 25)))
		dx := s.pick(icd10)

		creatMean, hbaMean := 1.1, 6.2
		if dx == "N18" {
			creatMean = 1.4
		}
		if dx == "E11" {
			hbaMean = 7.8
		}

		admissions := 0
		if s.rng.Float64() < 0.22 {
			admissions++
		}
		if s.rng.Float64() < 0.10 {
			admissions++
		}

		out[i] = &Episode{
			PatientID:         pid,
			EpisodeID:         eid,
			AdmittedOn:        admitted,
			PlannedDischarge:  admitted.AddDate(0, 0, int(s.normal(7, 3, 1, 21))),
			Age:               int(s.normal(66, 12, 20, 95)),
			Sex:               s.pick([]string{"M", "F"}),
			DxPrimary:         dx,
			DxSecondary:       secondary(s),
			Creatinine:        round(s.normal(creatMean, 0.5, 0.4, 6.0), 2),
			HbA1c:             round(s.normal(hbaMean, 1.2, 4.8, 13.5), 1),
			SBP:               int(s.normal(132, 18, 90, 210)),
			DBP:               int(s.normal(82, 12, 55, 130)),
			Polypharmacy:      min(s.poisson(5), 18),
			PriorAdmissions6m: admissions,
			Service:           s.pick(services),
			Municipality:      s.pick(municipalities),
		}
	}
	return out, nil
}

// secondary draws one to three distinct diagnosis codes.
func secondary(s *source) []string {
	codes := make([]string, len(icd10))
	copy(codes, icd10)
	s.rng.Shuffle(len(codes), func(i, j int) { codes[i], codes[j] = codes[j], codes[i] })
	return codes[:1+s.rng.IntN(3)]
}

// Vector returns the episode as a batch scoring input.
func (e *Episode) Vector() engine.FeatureVector {
	return engine.FeatureVector{
		"creatinine":     e.Creatinine,
		"hba1c":          e.HbA1c,
		"sbp":            e.SBP,
		"polypharmacy_n": e.Polypharmacy,
		"admissions_6m":  e.PriorAdmissions6m,
		"service":        e.Service,
		"patient_id":     e.PatientID.String(),
	}
}

// CensusTable renders episodes with CensusColumns.
func CensusTable(episodes []*Episode) *table.Table {
	t := &table.Table{Columns: CensusColumns}
	for _, e := range episodes {
		t.Rows = append(t.Rows, []string{
			e.PatientID.String(),
			e.EpisodeID.String(),
			e.AdmittedOn.Format(dateLayout),
			e.PlannedDischarge.Format(dateLayout),
			strconv.Itoa(e.Age),
			e.Sex,
			e.DxPrimary,
			strings.Join(e.DxSecondary, ";"),
			strconv.FormatFloat(e.Creatinine, 'f', 2, 64),
			strconv.FormatFloat(e.HbA1c, 'f', 1, 64),
			strconv.Itoa(e.SBP),
			strconv.Itoa(e.DBP),
			strconv.Itoa(e.Polypharmacy),
			strconv.Itoa(e.PriorAdmissions6m),
			e.Service,
			e.Municipality,
		})
	}
	return t
}
