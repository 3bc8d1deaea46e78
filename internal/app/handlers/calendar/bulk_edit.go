package calendar

import (
	"context"
	"log/slog"
	"time"

	"lodging/internal/app/commands"
	"lodging/internal/app/dto"
	"lodging/internal/app/handlers/availability"
	"lodging/internal/app/handlers/support"
	"lodging/internal/app/outbox"
	"lodging/internal/app/uow"
	domaincalendar "lodging/internal/domain/calendar"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/errs"
	"lodging/internal/domain/shared/money"
)

const applyBulkEditKey = "calendar.bulk_edit"

// BulkEditLine carries Price in minor units of the room currency.
type BulkEditLine struct {
	Date   time.Time `validate:"required"`
	Status string    `validate:"required,manual_status"`
	Price  *int64    `validate:"omitempty,gte=0"`
}

type ApplyBulkEditCommand struct {
	RoomID  string         `validate:"required"`
	Updates []BulkEditLine `validate:"required,min=1,dive"`
	Reason  string         `validate:"max=500"`
}

func (c ApplyBulkEditCommand) Key() string { return applyBulkEditKey }

func (c ApplyBulkEditCommand) RoomScope() domainrooms.RoomID { return domainrooms.RoomID(c.RoomID) }

// ApplyBulkEditHandler writes a batch of calendar entries for one room, or
// nothing at all when any edited date is held by a confirmed reservation.
type ApplyBulkEditHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	MaxDates   int
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ApplyBulkEditHandler) Handle(ctx context.Context, cmd ApplyBulkEditCommand) (*dto.BulkEditResult, error) {
	scope, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{Room: cmd.RoomScope()})
	if err != nil {
		return nil, err
	}
	defer scope.Release()
	ctx, unit := scope.Ctx, scope.Unit
	logger := support.Logger(h.Logger)
	now := support.Clock(h.Now)

	room, err := support.FindRoom(ctx, unit, cmd.RoomScope())
	if err != nil {
		return nil, err
	}
	updates, err := toUpdates(room, cmd.Updates)
	if err != nil {
		return nil, err
	}
	batch, err := domaincalendar.NewBatch(room, updates, cmd.Reason, h.MaxDates, now)
	if err != nil {
		return nil, errs.Validation(errs.CodeInvalidInput, "invalid bulk edit", err)
	}

	reserved, err := reservedDates(ctx, unit, room, batch)
	if err != nil {
		return nil, err
	}
	if len(reserved) > 0 {
		logger.Info("bulk edit rejected", "room_id", room.ID, "reserved_dates", len(reserved), "reason", cmd.Reason)
		return nil, errs.Conflict(errs.CodeBulkEditRejected, "dates are held by confirmed reservations", reserved, nil)
	}

	if err := unit.Calendar().Upsert(ctx, batch.Entries); err != nil {
		return nil, err
	}
	batch.Applied(now)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, batch.Drain()); err != nil {
		return nil, err
	}
	if err := scope.Commit(); err != nil {
		return nil, err
	}

	logger.Info("bulk edit applied", "room_id", room.ID, "dates", len(batch.Entries), "reason", cmd.Reason)
	return &dto.BulkEditResult{OK: true, RoomID: string(room.ID), Applied: len(batch.Entries)}, nil
}

// reservedDates resolves only the edited dates, one window per run, so the
// work is bounded by the batch size whatever the gaps between dates.
func reservedDates(ctx context.Context, unit uow.UnitOfWork, room *domainrooms.Room, batch *domaincalendar.Batch) ([]time.Time, error) {
	var reserved []time.Time
	for _, w := range batch.Windows() {
		res, err := availability.LoadFor(ctx, unit, room, w)
		if err != nil {
			return nil, err
		}
		dates, err := res.ReservedDates(w.Days())
		if err != nil {
			return nil, err
		}
		reserved = append(reserved, dates...)
	}
	return reserved, nil
}

func toUpdates(room *domainrooms.Room, lines []BulkEditLine) ([]domaincalendar.Update, error) {
	out := make([]domaincalendar.Update, 0, len(lines))
	for _, line := range lines {
		status, err := domaincalendar.ParseManualStatus(line.Status)
		if err != nil {
			return nil, errs.Validation(errs.CodeInvalidInput, "invalid status "+line.Status, err)
		}
		u := domaincalendar.Update{Date: line.Date, Status: status}
		if line.Price != nil && status == domaincalendar.StatusAvailable {
			price, err := money.New(*line.Price, room.DefaultPrice.Currency)
			if err != nil {
				return nil, errs.Validation(errs.CodeInvalidInput, "invalid price", err)
			}
			u.Price = &price
		}
		out = append(out, u)
	}
	return out, nil
}

var _ commands.Handler[ApplyBulkEditCommand, *dto.BulkEditResult] = (*ApplyBulkEditHandler)(nil)
var _ uow.RoomScoped = ApplyBulkEditCommand{}
