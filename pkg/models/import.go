package models

import "time"

// ImportStatus represents the lifecycle state of a CV import task
type ImportStatus string

const (
	ImportStatusPending             ImportStatus = "pending"
	ImportStatusProcessing          ImportStatus = "processing"
	ImportStatusCompleted           ImportStatus = "completed"
	ImportStatusCompletedWithErrors ImportStatus = "completed_with_errors"
	ImportStatusFailed              ImportStatus = "failed"
	ImportStatusTimedOut            ImportStatus = "timed_out"
)

// Rank orders statuses along the lifecycle. All terminal statuses share the
// highest rank; unknown statuses rank below pending.
func (s ImportStatus) Rank() int {
	switch s {
	case ImportStatusPending:
		return 1
	case ImportStatusProcessing:
		return 2
	case ImportStatusCompleted, ImportStatusCompletedWithErrors, ImportStatusFailed, ImportStatusTimedOut:
		return 3
	default:
		return 0
	}
}

// IsTerminal reports whether no further transition can leave this status
func (s ImportStatus) IsTerminal() bool {
	return s.Rank() == 3
}

// ProfileAvailable reports whether a task in this status yields profile data
func (s ImportStatus) ProfileAvailable() bool {
	return s == ImportStatusCompleted || s == ImportStatusCompletedWithErrors
}

// IsValid reports whether s is one of the known statuses
func (s ImportStatus) IsValid() bool {
	return s.Rank() > 0
}

// ExtractedSummary carries entity counts reported by the extraction service
type ExtractedSummary struct {
	WorkExperienceCount int `json:"workExperienceCount"`
	EducationCount      int `json:"educationCount"`
	SkillsCount         int `json:"skillsCount"`
	ProjectsCount       int `json:"projectsCount"`
	CertificationsCount int `json:"certificationsCount"`
	TrainingCount       int `json:"trainingCount"`
}

// ImportTask tracks one uploaded CV from submission to a terminal state
type ImportTask struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id,omitempty"`
	Status        ImportStatus      `json:"status"`
	SourceRef     string            `json:"source_ref"`
	Summary       *ExtractedSummary `json:"extracted_data_summary,omitempty"`
	ErrorDetail   *string           `json:"error_detail"`
	Attempts      int               `json:"attempts"`
	LastPollError string            `json:"last_poll_error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`

	// AuthToken is the uploader's credential, replayed on status checks.
	// It never leaves the service.
	AuthToken string `json:"-"`
}

// Clone returns a deep copy of the task
func (t *ImportTask) Clone() *ImportTask {
	if t == nil {
		return nil
	}
	c := *t
	if t.Summary != nil {
		s := *t.Summary
		c.Summary = &s
	}
	if t.ErrorDetail != nil {
		d := *t.ErrorDetail
		c.ErrorDetail = &d
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// ProfileAvailable reports whether the extracted profile may be consumed
func (t *ImportTask) ProfileAvailable() bool {
	return t.Status.ProfileAvailable()
}
