package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"careerarc/pkg/models"
)

// TaskIDPattern accepts the ids issued by the local backend (UUIDs) as well
// as the opaque ids of remote extraction services
var TaskIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{5,63}$`)

// ValidateTaskID validates that an import task id is a safe token
func ValidateTaskID(fl validator.FieldLevel) bool {
	return TaskIDPattern.MatchString(fl.Field().String())
}

// ValidateDocumentLength accepts the known document lengths
func ValidateDocumentLength(fl validator.FieldLevel) bool {
	length := models.DocumentLength(fl.Field().String())
	for _, known := range models.DocumentLengths {
		if length == known {
			return true
		}
	}
	return false
}

// RegisterValidators registers the custom validators used by request models
func RegisterValidators(v *validator.Validate) {
	v.RegisterValidation("task_id", ValidateTaskID)
	v.RegisterValidation("document_length", ValidateDocumentLength)
}

// New returns a validator with the custom validators registered
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}
