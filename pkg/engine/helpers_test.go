package engine

func exampleVector() FeatureVector {
	return FeatureVector{
		"age": 52, "sex": "M", "sbp": 134, "dbp": 82, "hba1c": 6.8, "ldl": 122,
		"egfr": 78, "uacr": 45, "bmi": 29.2, "smoker": "No", "diabetes": "No",
		"htn": "No", "statin": "No", "ace_arb": "No", "sglt2": "No", "glp1": "No",
		"prior_cv": "No", "ckd_stage": "No",
	}
}

func batchRecord(creatinine, hba1c, sbp, poly, adm float64) FeatureVector {
	return FeatureVector{
		"creatinine":     creatinine,
		"hba1c":          hba1c,
		"sbp":            sbp,
		"polypharmacy_n": poly,
		"admissions_6m":  adm,
	}
}
