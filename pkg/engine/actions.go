package engine

import "fmt"

type actionRule struct {
	text    string
	applies func(v FeatureVector) bool
}

var (
	tierActions = map[Tier]string{
		TierHigh:   "Intensive follow-up (1-3 months) with a personalized multidisciplinary plan.",
		TierMedium: "Reinforced follow-up (3-6 months) with risk-directed goals.",
		TierLow:    "Preventive education and annual follow-up.",
	}

	actionRules = []actionRule{
		{
			text: "Intensify glycemic control and therapeutic education; evaluate GLP-1/SGLT2 where indicated.",
			applies: func(v FeatureVector) bool {
				return atLeast(v, "hba1c", 7.0) || v.Affirmative("diabetes")
			},
		},
		{
			text: "Optimize blood pressure control (<130/80 if tolerated); reinforce ACE/ARB adherence.",
			applies: func(v FeatureVector) bool {
				return atLeast(v, "sbp", 140) || v.Affirmative("htn")
			},
		},
		{
			text: "Start or optimize high-intensity statin; LDL goal <70 mg/dL if high risk.",
			applies: func(v FeatureVector) bool {
				l, ok := v.Label("statin")
				return atLeast(v, "ldl", 130) || (ok && yesNo(l) == labelNo)
			},
		},
		{
			text: "Nephroprotection: ACE/ARB, evaluate SGLT2; refer to nephrology if CKD >= 3b or UACR >= 300.",
			applies: func(v FeatureVector) bool {
				egfr, ok := v.Number("egfr")
				return (ok && egfr < 60) || atLeast(v, "uacr", 30)
			},
		},
		{
			text: "Supervised weight loss and physical activity program.",
			applies: func(v FeatureVector) bool {
				return atLeast(v, "bmi", 30)
			},
		},
		{
			text: "Intensive tobacco cessation intervention.",
			applies: func(v FeatureVector) bool {
				return v.Affirmative("smoker")
			},
		},
	}
)

// RecommendedActions builds the follow-up plan for a scored subject: the
// tier-level follow-up first, then one item per modifiable driver present, and
// finally the peak hazard window to concentrate interventions in.
func RecommendedActions(v FeatureVector, tier Tier, window Window) []string {
	out := []string{tierActions[tier]}
	for _, r := range actionRules {
		if r.applies(v) {
			out = append(out, r.text)
		}
	}
	out = append(out, fmt.Sprintf("Reinforce interventions between months %d-%d (highest hazard window).",
		window.Start, window.End))
	return out
}

func atLeast(v FeatureVector, name string, threshold float64) bool {
	x, ok := v.Number(name)
	return ok && x >= threshold
}
