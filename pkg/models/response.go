package models

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ProfileResponse returns a normalized profile
type ProfileResponse struct {
	Profile   *CareerProfile `json:"profile"`
	Source    string         `json:"source,omitempty"`
	RequestID string         `json:"request_id"`
}

// KeywordsResponse returns keywords extracted from a job description
type KeywordsResponse struct {
	Keywords  []string `json:"keywords"`
	Provider  string   `json:"provider"`
	RequestID string   `json:"request_id"`
}

// ScoreResponse returns keyword assessments and the aggregate match score.
// MatchScore is null when no keywords were scored.
type ScoreResponse struct {
	Assessments []KeywordAssessment `json:"assessments"`
	MatchScore  *int                `json:"match_score"`
	Summary     ScoreSummary        `json:"summary"`
	RequestID   string              `json:"request_id"`
}

// FilterResponse returns the filtered prioritized profile
type FilterResponse struct {
	Profile     PrioritizedProfile `json:"profile"`
	MaxPriority int                `json:"max_priority"`
	Length      DocumentLength     `json:"length,omitempty"`
	RequestID   string             `json:"request_id"`
}

// DocumentLengthsResponse lists the configured length to priority mapping
type DocumentLengthsResponse struct {
	Lengths map[DocumentLength]int `json:"lengths"`
}
