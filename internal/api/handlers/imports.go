package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"careerarc/internal/api/middleware"
	"careerarc/internal/config"
	"careerarc/internal/extraction"
	"careerarc/internal/importer"
	"careerarc/internal/logging"
	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

type taskParams struct {
	ID string `param:"id" validate:"required,task_id"`
}

// CreateImportHandler handles POST /api/v1/imports. The CV arrives as the
// multipart field "file"; extraction continues in the background.
func CreateImportHandler(cfg *config.Config, imports *importer.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)
		logger := logging.GetGlobalLogger()

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return respondError(c, "invalid_request", utils.NewBadRequestError("Multipart field \"file\" is required"))
		}
		if cfg.Imports.MaxFileSize > 0 && fileHeader.Size > cfg.Imports.MaxFileSize {
			return respondError(c, "file_too_large", &utils.CustomError{
				Code:    http.StatusRequestEntityTooLarge,
				Message: "Uploaded file exceeds the size limit",
				Detail:  fmt.Sprintf("limit is %d bytes", cfg.Imports.MaxFileSize),
			})
		}

		file, err := fileHeader.Open()
		if err != nil {
			return respondError(c, "invalid_request", utils.NewBadRequestError("Uploaded file could not be read"))
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return respondError(c, "invalid_request", utils.NewBadRequestError("Uploaded file could not be read"))
		}

		contentType := fileHeader.Header.Get(echo.HeaderContentType)
		if len(data) > 0 {
			if _, err := extraction.DetectFormat(fileHeader.Filename, contentType, data); err != nil {
				return respondError(c, "unsupported_file", utils.NewUnsupportedFileError(err.Error()))
			}
		}

		task, err := imports.Import(c.Request().Context(), importer.Upload{
			Filename:    fileHeader.Filename,
			ContentType: contentType,
			Data:        data,
			UserID:      middleware.UserID(c),
			AuthToken:   middleware.AuthToken(c),
		})
		if err != nil {
			switch {
			case errors.Is(err, importer.ErrEmptyFile):
				return respondError(c, "empty_file", utils.NewBadRequestError("Uploaded file is empty"))
			case errors.Is(err, importer.ErrFileTooLarge):
				return respondError(c, "file_too_large", &utils.CustomError{
					Code:    http.StatusRequestEntityTooLarge,
					Message: "Uploaded file exceeds the size limit",
				})
			default:
				return respondError(c, "import_submission_failed", utils.NewExtractionError(err.Error()))
			}
		}

		logger.Info("CV import accepted", map[string]interface{}{
			"request_id": requestID,
			"task_id":    task.ID,
			"user_id":    task.UserID,
			"filename":   fileHeader.Filename,
			"size":       len(data),
		})

		return c.JSON(http.StatusAccepted, models.CreateImportAcceptedResponse(task))
	}
}

// ListImportsHandler handles GET /api/v1/imports
func ListImportsHandler(imports *importer.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := middleware.UserID(c)
		if userID == "" {
			return respondError(c, "unauthorized", &utils.CustomError{
				Code:    http.StatusUnauthorized,
				Message: "Listing imports requires an authenticated user",
			})
		}

		tasks, err := imports.List(c.Request().Context(), userID)
		if err != nil {
			return respondError(c, "import_store_error", utils.NewInternalServerError("Failed to list import tasks"))
		}
		if tasks == nil {
			tasks = []*models.ImportTask{}
		}

		return c.JSON(http.StatusOK, models.ImportTaskListResponse{
			Success: true,
			Tasks:   tasks,
			Count:   len(tasks),
		})
	}
}

// GetImportHandler handles GET /api/v1/imports/:id. It reads the stored
// snapshot and never contacts the extraction service.
func GetImportHandler(imports *importer.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var params taskParams
		if code, cerr := bindAndValidate(c, &params); cerr != nil {
			return respondError(c, code, cerr)
		}

		task, err := imports.Get(c.Request().Context(), middleware.UserID(c), params.ID)
		if err != nil {
			return taskError(c, params.ID, err)
		}
		return c.JSON(http.StatusOK, models.ImportTaskResponse{
			Task:             task,
			ProfileAvailable: task.ProfileAvailable(),
		})
	}
}

// PollImportHandler handles POST /api/v1/imports/:id/poll, one caller-driven
// status check
func PollImportHandler(imports *importer.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var params taskParams
		if code, cerr := bindAndValidate(c, &params); cerr != nil {
			return respondError(c, code, cerr)
		}

		task, err := imports.Poll(c.Request().Context(), middleware.UserID(c), params.ID)
		if err != nil {
			return taskError(c, params.ID, err)
		}
		return c.JSON(http.StatusOK, models.ImportTaskResponse{
			Task:             task,
			ProfileAvailable: task.ProfileAvailable(),
		})
	}
}

// DeleteImportHandler handles DELETE /api/v1/imports/:id
func DeleteImportHandler(imports *importer.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var params taskParams
		if code, cerr := bindAndValidate(c, &params); cerr != nil {
			return respondError(c, code, cerr)
		}

		if err := imports.Delete(c.Request().Context(), middleware.UserID(c), params.ID); err != nil {
			return taskError(c, params.ID, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// taskError maps tracker errors onto async error responses
func taskError(c echo.Context, taskID string, err error) error {
	status := http.StatusInternalServerError
	code := "import_store_error"
	switch {
	case errors.Is(err, importer.ErrTaskNotFound):
		status, code = http.StatusNotFound, "task_not_found"
	case errors.Is(err, importer.ErrForbiddenTask):
		status, code = http.StatusForbidden, "task_forbidden"
	case errors.Is(err, importer.ErrPollInFlight):
		status, code = http.StatusConflict, "poll_in_flight"
	}

	fields := map[string]interface{}{
		"request_id": middleware.RequestID(c),
		"task_id":    taskID,
		"error":      err.Error(),
	}
	if status >= 500 {
		logging.GetGlobalLogger().Error("Import task request failed", fields)
	} else {
		logging.GetGlobalLogger().Debug("Import task request rejected", fields)
	}

	return c.JSON(status, models.CreateAsyncErrorResponse(code, err.Error(), taskID))
}
