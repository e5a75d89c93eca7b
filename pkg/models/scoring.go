package models

// RAGStatus is the Red/Amber/Green support level of a keyword
type RAGStatus string

const (
	RAGGreen RAGStatus = "green"
	RAGAmber RAGStatus = "amber"
	RAGRed   RAGStatus = "red"
)

// KeywordAssessment records how well one job keyword is evidenced in a profile
type KeywordAssessment struct {
	Keyword      string    `json:"keyword"`
	Status       RAGStatus `json:"status"`
	EvidenceRefs []string  `json:"evidence_refs"`
}

// MatchBand buckets a match score for display
type MatchBand string

const (
	MatchBandHigh   MatchBand = "high"
	MatchBandMedium MatchBand = "medium"
	MatchBandLow    MatchBand = "low"
	MatchBandNone   MatchBand = "none"
)

// ScoreSummary counts assessments per status
type ScoreSummary struct {
	Total int       `json:"total"`
	Green int       `json:"green"`
	Amber int       `json:"amber"`
	Red   int       `json:"red"`
	Band  MatchBand `json:"band"`
}
