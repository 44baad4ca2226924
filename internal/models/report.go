package models

// AnalysisReport is the structured graphology report produced by the
// external analysis engine. The gate passes it through untouched.
type AnalysisReport struct {
	PersonalitySummary string   `json:"personalitySummary"`
	Strengths          []string `json:"strengths"`
	Weaknesses         []string `json:"weaknesses"`
}

// ContextualReport is the follow-up report relating a base analysis to a
// user-supplied context or question.
type ContextualReport struct {
	RelevanceExplanation string   `json:"relevanceExplanation"`
	SuitabilityScore     float64  `json:"suitabilityScore"`
	ActionableAdvice     []string `json:"actionableAdvice"`
	SpecificRisks        []string `json:"specificRisks"`
}
