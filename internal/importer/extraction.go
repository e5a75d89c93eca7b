package importer

import (
	"context"

	"careerarc/internal/profile"
	"careerarc/pkg/models"
)

// Upload is one CV file submitted for extraction
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	UserID      string
	// AuthToken is forwarded to remote collaborators that act on the user's behalf
	AuthToken string
	// SourceRef points at the archived copy of the file, when one was kept
	SourceRef string
}

// StatusReport is what the extraction service says about a task
type StatusReport struct {
	Status  models.ImportStatus
	Summary *models.ExtractedSummary
	Error   *string
	// Profile is set by extractors that return the extracted document
	// directly instead of writing it to the profile store
	Profile profile.RawProfile
}

// ExtractionService is the external collaborator that turns CV files into
// profile documents. Submit issues the task ID; Status never blocks on the
// extraction itself. Status receives the credential the upload was made with.
type ExtractionService interface {
	Submit(ctx context.Context, upload Upload) (string, error)
	Status(ctx context.Context, taskID, authToken string) (StatusReport, error)
}
