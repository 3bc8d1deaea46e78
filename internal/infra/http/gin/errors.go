package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"lodging/internal/app/commands"
	"lodging/internal/app/queries"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/errs"
)

// errorBody is the JSON shape of every failed request. Dates is set for
// conflicts; Rejected repeats it for refused bulk edits.
type errorBody struct {
	Error    string   `json:"error"`
	Code     string   `json:"code,omitempty"`
	Dates    []string `json:"dates,omitempty"`
	Rejected []string `json:"rejected,omitempty"`
}

func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindNotFound:
		return http.StatusNotFound
	}
	if errors.Is(err, commands.ErrHandlerNotFound) || errors.Is(err, queries.ErrHandlerNotFound) ||
		errors.Is(err, commands.ErrNilBus) || errors.Is(err, queries.ErrNilBus) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error(), Code: errs.CodeOf(err)}
	if dates := errs.DatesOf(err); len(dates) > 0 {
		body.Dates = formatDays(dates)
		if body.Code == errs.CodeBulkEditRejected {
			body.Rejected = body.Dates
		}
	}
	if status >= http.StatusInternalServerError {
		body.Error = http.StatusText(status)
		if logger != nil {
			logger.Error("request failed", "status", status, "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id"))
		}
	}
	c.JSON(status, body)
}

func formatDays(days []time.Time) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, daterange.FormatDay(d))
	}
	return out
}

// parseDay reads a YYYY-MM-DD value, naming the field in the error.
func parseDay(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errs.Validation(errs.CodeInvalidInput, field+" is required", nil)
	}
	d, err := daterange.ParseDay(raw)
	if err != nil {
		return time.Time{}, errs.Validation(errs.CodeInvalidInput, field+" must be a YYYY-MM-DD date", err)
	}
	return d, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errs.Validation(errs.CodeInvalidInput, "malformed request body", err)
	}
	return nil
}
