package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"lodging/internal/app/dto"
	availabilityapp "lodging/internal/app/handlers/availability"
	"lodging/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// Availability resolves GET /rooms/:id/availability?from=&to= (both inclusive).
func (h AvailabilityHandler) Availability(c *gin.Context) {
	from, err := parseDay("from", c.Query("from"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	to, err := parseDay("to", c.Query("to"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	query := availabilityapp.ResolveAvailabilityQuery{RoomID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[availabilityapp.ResolveAvailabilityQuery, dto.RoomAvailability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Quote(c *gin.Context) {
	checkIn, err := parseDay("check_in", c.Query("check_in"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	checkOut, err := parseDay("check_out", c.Query("check_out"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	query := availabilityapp.QuoteStayQuery{RoomID: c.Param("id"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[availabilityapp.QuoteStayQuery, dto.StayQuote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
