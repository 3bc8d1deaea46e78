package availability

import (
	"context"
	"errors"
	"time"

	"lodging/internal/app/dto"
	"lodging/internal/app/queries"
	"lodging/internal/app/uow"
	domainavailability "lodging/internal/domain/availability"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/errs"
)

const quoteStayKey = "availability.quote"

type QuoteStayQuery struct {
	RoomID   string    `validate:"required"`
	CheckIn  time.Time `validate:"required"`
	CheckOut time.Time `validate:"required"`
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

// QuoteStayHandler prices a stay from the effective nightly prices.
type QuoteStayHandler struct {
	UoWFactory uow.UoWFactory
	MaxNights  int
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.StayQuote, error) {
	stay, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.StayQuote{}, errs.Validation(errs.CodeInvalidRange, "check_out must be after check_in", err)
	}
	if h.MaxNights > 0 && stay.Nights() > h.MaxNights {
		return dto.StayQuote{}, errs.Validation(errs.CodeInvalidRange, "stay is too long", nil)
	}

	scope, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.StayQuote{}, err
	}
	defer scope.Release()

	roomID := domainrooms.RoomID(q.RoomID)
	res, err := Load(scope.Ctx, scope.Unit, roomID, daterange.Stay(stay))
	if err != nil {
		return dto.StayQuote{}, err
	}
	breakdown, err := res.Quote(stay)
	if err != nil {
		var unavailable *domainavailability.StayUnavailableError
		if errors.As(err, &unavailable) {
			return dto.StayQuote{}, errs.Conflict(errs.CodeDateRangeUnavailable, "stay is not available", unavailable.Dates, err)
		}
		return dto.StayQuote{}, err
	}
	return dto.MapQuote(roomID, stay, breakdown), nil
}

var _ queries.Handler[QuoteStayQuery, dto.StayQuote] = (*QuoteStayHandler)(nil)
