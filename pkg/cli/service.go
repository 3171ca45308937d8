package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/mchmarny/riskpulse/pkg/metrics"
	"github.com/mchmarny/riskpulse/pkg/table"
	"github.com/mchmarny/riskpulse/pkg/whatif"
	"gopkg.in/yaml.v3"
)

// columns appended by the single-subject check
var checkColumns = []string{"risk_pct_24m", "risk_tier_24m", "peak_start_m", "peak_end_m"}

// ScoreResponse is a single-subject score with its follow-up plan.
type ScoreResponse struct {
	Result  *engine.RiskResult `json:"result" yaml:"result"`
	Actions []string           `json:"actions" yaml:"actions"`
}

// ExplainResponse lists per-feature attributions at 24 months.
type ExplainResponse struct {
	RiskPercent  float64              `json:"risk_percent" yaml:"riskPercent"`
	Attributions []engine.Attribution `json:"attributions" yaml:"attributions"`
}

// ROIRequest is a plain what-if calculation.
type ROIRequest struct {
	CohortSize     int     `json:"cohort_size" yaml:"cohortSize"`
	BaselineRate   float64 `json:"baseline_rate" yaml:"baselineRate"`
	Coverage       float64 `json:"coverage" yaml:"coverage"`
	Efficacy       float64 `json:"efficacy" yaml:"efficacy"`
	CostPerEvent   float64 `json:"cost_per_event" yaml:"costPerEvent"`
	CostPerPatient float64 `json:"cost_per_patient" yaml:"costPerPatient"`
}

// ROIResponse is the outcome of an ROIRequest.
type ROIResponse struct {
	Treated int            `json:"treated" yaml:"treated"`
	Avoided float64        `json:"avoided_events" yaml:"avoidedEvents"`
	Result  *whatif.Result `json:"result" yaml:"result"`
}

func scoreSubject(e *engine.Engine, v engine.FeatureVector, horizon int) (*ScoreResponse, error) {
	start := time.Now()
	res, err := e.Compute(v, horizon)
	if err != nil {
		return nil, err
	}
	metrics.ObserveScore(engine.ModelWeibull, 1, start)
	return &ScoreResponse{
		Result:  res,
		Actions: engine.RecommendedActions(v, res.Tier, res.Metadata.PeakWindow),
	}, nil
}

func explainSubject(e *engine.Engine, v engine.FeatureVector) (*ExplainResponse, error) {
	res, err := e.Compute(v, engine.DefaultHorizonMonths)
	if err != nil {
		return nil, err
	}
	return &ExplainResponse{RiskPercent: res.RiskPercent, Attributions: e.Explain(v)}, nil
}

// checkTable scores every row of a feature table at 24 months and returns the
// input with the check columns appended.
func checkTable(e *engine.Engine, t *table.Table) (*table.Table, error) {
	if err := e.Table().ValidateColumns(t.Columns); err != nil {
		metrics.ObserveSchemaError(string(engine.PipelineSubject))
		return nil, err
	}

	start := time.Now()
	out := &table.Table{Columns: append(append([]string{}, t.Columns...), checkColumns...)}
	for i, v := range t.Vectors() {
		res, err := e.Compute(v, engine.DefaultHorizonMonths)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		risk := math.Round(res.RiskPercent*10) / 10
		row := append(append([]string{}, t.Rows[i]...),
			strconv.FormatFloat(risk, 'f', 1, 64),
			string(res.Tier),
			strconv.Itoa(res.Metadata.PeakWindow.Start),
			strconv.Itoa(res.Metadata.PeakWindow.End),
		)
		out.Rows = append(out.Rows, row)
	}
	metrics.ObserveScore(engine.ModelWeibull, len(out.Rows), start)
	return out, nil
}

func scoreBatchTable(ctx context.Context, t *table.Table, seed uint64) ([]*engine.ScoredRow, error) {
	if err := engine.ValidateBatchColumns(t.Columns); err != nil {
		metrics.ObserveSchemaError(string(engine.PipelineBatch))
		return nil, err
	}
	start := time.Now()
	rows, err := engine.ScoreBatch(ctx, t.Vectors(), seed)
	if err != nil {
		var se *engine.SchemaValidationError
		if errors.As(err, &se) {
			metrics.ObserveSchemaError(string(se.Pipeline))
		}
		return nil, err
	}
	metrics.ObserveScore(engine.ModelBatchLogistic, len(rows), start)
	metrics.BatchRowsTotal.Add(float64(len(rows)))
	return rows, nil
}

func runROI(req ROIRequest) (*ROIResponse, error) {
	avoided, err := whatif.AvoidedEvents(req.CohortSize, req.BaselineRate, req.Coverage, req.Efficacy)
	if err != nil {
		return nil, err
	}
	treated := int(math.Ceil(float64(req.CohortSize) * req.Coverage))
	res, err := whatif.ROI(avoided, req.CostPerEvent, req.CostPerPatient, treated)
	if err != nil {
		return nil, err
	}
	return &ROIResponse{Treated: treated, Avoided: avoided, Result: res}, nil
}

// readVector decodes a feature vector from a JSON or YAML document.
func readVector(r io.Reader) (engine.FeatureVector, error) {
	var v engine.FeatureVector
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty feature document")
		}
		return nil, fmt.Errorf("decoding features: %w", err)
	}
	return v, nil
}

func readVectorFile(path string) (engine.FeatureVector, error) {
	if path == "" || path == "-" {
		return readVector(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return readVector(f)
}

// applyOverrides sets name=value pairs on v.
func applyOverrides(v engine.FeatureVector, pairs []string) (engine.FeatureVector, error) {
	if v == nil {
		v = engine.FeatureVector{}
	}
	for _, p := range pairs {
		k, val, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid feature override %q, expected name=value", p)
		}
		v = v.With(strings.TrimSpace(k), strings.TrimSpace(val))
	}
	return v, nil
}

func readTable(path string) (*table.Table, error) {
	if path == "" || path == "-" {
		return table.Read(os.Stdin)
	}
	return table.ReadFile(path)
}
