package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"lodging/internal/app/commands"
	"lodging/internal/app/dto"
	calendarapp "lodging/internal/app/handlers/calendar"
)

type CalendarHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type bulkEditLineRequest struct {
	Date   string `json:"date"`
	Status string `json:"status"`
	Price  *int64 `json:"price"`
}

type bulkEditRequest struct {
	Updates []bulkEditLineRequest `json:"updates"`
	Reason  string                `json:"reason"`
}

// BulkEdit applies POST /rooms/:id/calendar/bulk-edit. A batch touching a
// reserved night answers 409 with the offending dates under "rejected".
func (h CalendarHandler) BulkEdit(c *gin.Context) {
	var req bulkEditRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	lines := make([]calendarapp.BulkEditLine, 0, len(req.Updates))
	for _, u := range req.Updates {
		date, err := parseDay("date", u.Date)
		if err != nil {
			respondWithError(c, h.Logger, err)
			return
		}
		lines = append(lines, calendarapp.BulkEditLine{Date: date, Status: u.Status, Price: u.Price})
	}
	cmd := calendarapp.ApplyBulkEditCommand{RoomID: c.Param("id"), Updates: lines, Reason: req.Reason}
	result, err := commands.Dispatch[calendarapp.ApplyBulkEditCommand, *dto.BulkEditResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CalendarHTTP = CalendarHandler{}
