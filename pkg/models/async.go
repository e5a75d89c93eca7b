package models

import (
	"time"
)

// ImportAcceptedResponse is returned immediately after a CV upload is accepted
type ImportAcceptedResponse struct {
	TaskID    string       `json:"taskId"`
	Status    ImportStatus `json:"status"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
}

// ImportTaskResponse wraps a task snapshot for status queries
type ImportTaskResponse struct {
	Task             *ImportTask `json:"task"`
	ProfileAvailable bool        `json:"profile_available"`
}

// ImportTaskListResponse represents the response for listing import tasks
type ImportTaskListResponse struct {
	Success bool          `json:"success"`
	Tasks   []*ImportTask `json:"tasks"`
	Count   int           `json:"count"`
}

// AsyncErrorResponse represents an error response for async operations
type AsyncErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	TaskID    string    `json:"taskId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateImportAcceptedResponse builds the 202 body for a submitted import
func CreateImportAcceptedResponse(task *ImportTask) *ImportAcceptedResponse {
	return &ImportAcceptedResponse{
		TaskID:    task.ID,
		Status:    task.Status,
		Message:   "CV accepted for background extraction",
		Timestamp: time.Now(),
	}
}

// CreateAsyncErrorResponse creates an error response for async operations
func CreateAsyncErrorResponse(code, message string, taskID ...string) *AsyncErrorResponse {
	response := &AsyncErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now(),
	}

	if len(taskID) > 0 && taskID[0] != "" {
		response.TaskID = taskID[0]
	}

	return response
}
