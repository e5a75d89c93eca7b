package importer

import (
	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
	"careerarc/pkg/models"
)

// CompletionLogger handles structured logging of import task transitions
type CompletionLogger struct {
	logger types.Logger
}

// NewCompletionLogger creates a new import task logger
func NewCompletionLogger() *CompletionLogger {
	return &CompletionLogger{
		logger: logging.GetGlobalLogger(),
	}
}

// LogTaskAccepted logs when an upload is accepted by the extraction service
func (l *CompletionLogger) LogTaskAccepted(task *models.ImportTask) {
	l.logger.Info("Import task accepted", map[string]interface{}{
		"task_id":    task.ID,
		"user_id":    task.UserID,
		"source_ref": task.SourceRef,
		"status":     task.Status,
	})
}

// LogPollError logs a failed status check. The task keeps its status.
func (l *CompletionLogger) LogPollError(task *models.ImportTask, err error) {
	l.logger.Warn("Import status check failed", map[string]interface{}{
		"task_id":  task.ID,
		"attempts": task.Attempts,
		"status":   task.Status,
		"error":    err.Error(),
	})
}

// LogTransition logs a non-terminal status change
func (l *CompletionLogger) LogTransition(task *models.ImportTask, from models.ImportStatus) {
	l.logger.Debug("Import task status changed", map[string]interface{}{
		"task_id":  task.ID,
		"from":     from,
		"to":       task.Status,
		"attempts": task.Attempts,
	})
}

// LogTaskCompletion logs the single transition of a task into a terminal status
func (l *CompletionLogger) LogTaskCompletion(task *models.ImportTask) {
	fields := map[string]interface{}{
		"task_id":  task.ID,
		"user_id":  task.UserID,
		"status":   task.Status,
		"attempts": task.Attempts,
	}
	if task.CompletedAt != nil {
		fields["processing_time"] = task.CompletedAt.Sub(task.CreatedAt).String()
	}
	if task.Summary != nil {
		fields["work_experience_count"] = task.Summary.WorkExperienceCount
		fields["skills_count"] = task.Summary.SkillsCount
	}
	if task.ErrorDetail != nil {
		fields["error"] = *task.ErrorDetail
	}

	switch task.Status {
	case models.ImportStatusCompleted:
		l.logger.Info("Import task completed", fields)
	case models.ImportStatusCompletedWithErrors:
		l.logger.Warn("Import task completed with errors", fields)
	default:
		l.logger.Error("Import task did not complete", fields)
	}
}
