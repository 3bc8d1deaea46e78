package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging/internal/app/dto"
	"lodging/internal/app/engine"
	"lodging/internal/app/uow"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/money"
	"lodging/internal/infra/obs"
	"lodging/internal/infra/storage/memory"
	"lodging/internal/infra/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store := memory.NewStore()
	factory := memory.Factory{Store: store}

	ctx := context.Background()
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	room, err := domainrooms.NewRoom(domainrooms.CreateRoomParams{ID: "R", MaxOccupancy: 2, DefaultPrice: money.Must(10000, "EUR")})
	require.NoError(t, err)
	require.NoError(t, unit.Rooms().Save(ctx, room))
	require.NoError(t, unit.Commit(ctx))

	e := engine.New(engine.Dependencies{
		UoWFactory:  factory,
		Outbox:      store.Outbox(),
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Cache:       memory.NewAvailabilityCache(time.Minute),
		Validator:   validation.New(),
		Limits:      engine.Limits{MaxWindowDays: 366, BulkEditMaxDates: 366, BookingMaxNights: 90},
	})
	return NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Availability: AvailabilityHandler{Queries: e.Queries},
		Calendar:     CalendarHandler{Commands: e.Commands},
		Booking:      BookingHandler{Commands: e.Commands, Queries: e.Queries},
	})
}

func do(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func book(router *gin.Engine, in, out string, headers map[string]string) *httptest.ResponseRecorder {
	return do(router, http.MethodPost, "/api/v1/rooms/R/bookings", map[string]any{
		"check_in":    in,
		"check_out":   out,
		"guest_count": 2,
	}, headers)
}

func TestAvailabilityEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := do(router, http.MethodGet, "/api/v1/rooms/R/availability?from=2024-06-10&to=2024-06-12", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	dates := body["dates"].(map[string]any)
	assert.Len(t, dates, 3)
	assert.Equal(t, "available", dates["2024-06-11"].(map[string]any)["status"])

	rec = do(router, http.MethodGet, "/api/v1/rooms/R/availability?from=2024-06-12&to=2024-06-10", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/api/v1/rooms/R/availability?from=12.06.2024&to=2024-06-10", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/api/v1/rooms/nope/availability?from=2024-06-10&to=2024-06-12", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := book(router, "2024-06-10", "2024-06-13", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[dto.Reservation](t, rec)
	assert.Equal(t, 3, created.Nights)
	assert.Equal(t, "confirmed", created.Status)

	rec = book(router, "2024-06-11", "2024-06-12", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decode[errorBody](t, rec)
	assert.Equal(t, []string{"2024-06-11"}, conflict.Dates)

	rec = book(router, "2024-06-13", "2024-06-15", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(router, http.MethodGet, "/api/v1/rooms/R/reservations", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.ReservationCollection](t, rec).Items, 2)

	rec = do(router, http.MethodPost, "/api/v1/reservations/"+created.ID+"/cancel", map[string]string{"reason": "guest request"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.CancelResult](t, rec).OK)

	rec = do(router, http.MethodPost, "/api/v1/reservations/"+created.ID+"/cancel", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.CancelResult](t, rec).AlreadyCancelled)

	rec = book(router, "2024-06-11", "2024-06-12", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(router, http.MethodPost, "/api/v1/reservations/missing/cancel", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingValidation(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		name string
		body any
	}{
		{name: "checkout before checkin", body: map[string]any{"check_in": "2024-06-13", "check_out": "2024-06-10", "guest_count": 1}},
		{name: "zero guests", body: map[string]any{"check_in": "2024-06-10", "check_out": "2024-06-11", "guest_count": 0}},
		{name: "missing dates", body: map[string]any{"guest_count": 1}},
		{name: "malformed body", body: "nope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, "/api/v1/rooms/R/bookings", tc.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := do(router, http.MethodPost, "/api/v1/rooms/R/bookings", map[string]any{"check_in": "2024-06-10", "check_out": "2024-06-11", "guest_count": 3}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIdempotencyKeyHeaderReplays(t *testing.T) {
	router := newTestRouter(t)
	headers := map[string]string{"Idempotency-Key": "abc"}

	first := book(router, "2024-06-10", "2024-06-13", headers)
	require.Equal(t, http.StatusCreated, first.Code)
	second := book(router, "2024-06-10", "2024-06-13", headers)
	require.Equal(t, http.StatusCreated, second.Code)

	assert.Equal(t, decode[dto.Reservation](t, first).ID, decode[dto.Reservation](t, second).ID)
}

func TestBulkEditEndpoint(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusCreated, book(router, "2024-06-10", "2024-06-13", nil).Code)

	price := int64(15000)
	rec := do(router, http.MethodPost, "/api/v1/rooms/R/calendar/bulk-edit", map[string]any{
		"updates": []map[string]any{{"date": "2024-06-15", "status": "available", "price": price}},
		"reason":  "summer rate",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.BulkEditResult](t, rec).OK)

	rec = do(router, http.MethodPost, "/api/v1/rooms/R/calendar/bulk-edit", map[string]any{
		"updates": []map[string]any{
			{"date": "2024-06-11", "status": "blocked"},
			{"date": "2024-06-20", "status": "blocked"},
		},
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	rejected := decode[errorBody](t, rec)
	assert.Equal(t, []string{"2024-06-11"}, rejected.Rejected)

	rec = do(router, http.MethodGet, "/api/v1/rooms/R/availability?from=2024-06-15&to=2024-06-20", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dates := decode[map[string]any](t, rec)["dates"].(map[string]any)
	assert.Equal(t, "available", dates["2024-06-20"].(map[string]any)["status"])
	price15 := dates["2024-06-15"].(map[string]any)["effective_price"].(map[string]any)
	assert.EqualValues(t, 15000, price15["amount"])

	rec = do(router, http.MethodPost, "/api/v1/rooms/R/calendar/bulk-edit", map[string]any{
		"updates": []map[string]any{{"date": "2024-06-21", "status": "reserved"}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := do(router, http.MethodGet, "/api/v1/rooms/R/quote?check_in=2024-06-10&check_out=2024-06-12", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quote := decode[dto.StayQuote](t, rec)
	assert.Equal(t, 2, quote.Nights)
	assert.Equal(t, int64(20000), quote.Total.Amount)

	rec = do(router, http.MethodGet, "/api/v1/rooms/R/quote?check_in=2024-06-10", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSwaggerAndHealthRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(router, http.MethodGet, "/swagger/doc.json", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, json.Valid(rec.Body.Bytes()))

	rec = do(router, http.MethodGet, "/swagger", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/swagger/doc.json")

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/livez", nil, nil).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/readyz", nil, nil).Code)
}
