package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lodging/internal/app/commands"
	"lodging/internal/app/dto"
	bookingapp "lodging/internal/app/handlers/booking"
	"lodging/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	GuestCount int    `json:"guest_count"`
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	checkIn, err := parseDay("check_in", req.CheckIn)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	checkOut, err := parseDay("check_out", req.CheckOut)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CommandID:       generateCommandID(),
		RoomID:          c.Param("id"),
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		GuestCount:      req.GuestCount,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Cancel accepts an optional {"reason": ...} body.
func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelReservationRequest
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			respondWithError(c, h.Logger, err)
			return
		}
	}
	cmd := bookingapp.CancelReservationCommand{ReservationID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.CancelReservationCommand, *dto.CancelResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListByRoom(c *gin.Context) {
	query := bookingapp.ListRoomReservationsQuery{RoomID: c.Param("id")}
	result, err := queries.Ask[bookingapp.ListRoomReservationsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
