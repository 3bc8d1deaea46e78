package postgres

import (
	"time"

	domaincalendar "lodging/internal/domain/calendar"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/money"
)

type roomModel struct {
	ID                 string `gorm:"primaryKey"`
	PropertyID         string `gorm:"index"`
	Name               string
	MaxOccupancy       int
	DefaultPriceAmount int64
	Currency           string `gorm:"size:3"`
	UpdatedAt          time.Time
}

func (roomModel) TableName() string { return "rooms" }

func newRoomModel(r *domainrooms.Room) roomModel {
	return roomModel{
		ID:                 string(r.ID),
		PropertyID:         string(r.PropertyID),
		Name:               r.Name,
		MaxOccupancy:       r.MaxOccupancy,
		DefaultPriceAmount: r.DefaultPrice.Amount,
		Currency:           r.DefaultPrice.Currency,
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

func (m roomModel) toRoom() *domainrooms.Room {
	return &domainrooms.Room{
		ID:           domainrooms.RoomID(m.ID),
		PropertyID:   domainrooms.PropertyID(m.PropertyID),
		Name:         m.Name,
		MaxOccupancy: m.MaxOccupancy,
		DefaultPrice: money.Money{Amount: m.DefaultPriceAmount, Currency: m.Currency},
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type entryModel struct {
	RoomID      string    `gorm:"primaryKey"`
	Date        time.Time `gorm:"primaryKey;type:date"`
	Status      string    `gorm:"size:16;not null"`
	PriceAmount *int64
	Currency    string `gorm:"size:3"`
	UpdatedAt   time.Time
}

func (entryModel) TableName() string { return "room_date_entries" }

func newEntryModel(e domaincalendar.Entry) entryModel {
	m := entryModel{
		RoomID:    string(e.RoomID),
		Date:      daterange.Day(e.Date),
		Status:    string(e.Status),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
	if e.Price != nil {
		amount := e.Price.Amount
		m.PriceAmount = &amount
		m.Currency = e.Price.Currency
	}
	return m
}

func (m entryModel) toEntry() domaincalendar.Entry {
	e := domaincalendar.Entry{
		RoomID:    domainrooms.RoomID(m.RoomID),
		Date:      daterange.Day(m.Date),
		Status:    domaincalendar.ManualStatus(m.Status),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if m.PriceAmount != nil {
		e.Price = &money.Money{Amount: *m.PriceAmount, Currency: m.Currency}
	}
	return e
}

type reservationModel struct {
	ID           string    `gorm:"primaryKey"`
	RoomID       string    `gorm:"index:idx_reservations_room_range,priority:1;not null"`
	CheckInDate  time.Time `gorm:"index:idx_reservations_room_range,priority:2;type:date;not null"`
	CheckOutDate time.Time `gorm:"index:idx_reservations_room_range,priority:3;type:date;not null"`
	GuestCount   int
	Status       string `gorm:"size:16;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

func (reservationModel) TableName() string { return "reservations" }

func newReservationModel(r *domainreservation.Reservation) reservationModel {
	return reservationModel{
		ID:           string(r.ID),
		RoomID:       string(r.RoomID),
		CheckInDate:  daterange.Day(r.Range.CheckIn),
		CheckOutDate: daterange.Day(r.Range.CheckOut),
		GuestCount:   r.Guests,
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		Version:      r.Version,
	}
}

func (m reservationModel) toAggregate() *domainreservation.Reservation {
	return &domainreservation.Reservation{
		ID:        domainreservation.ID(m.ID),
		RoomID:    domainrooms.RoomID(m.RoomID),
		Range:     daterange.DateRange{CheckIn: daterange.Day(m.CheckInDate), CheckOut: daterange.Day(m.CheckOutDate)},
		Guests:    m.GuestCount,
		Status:    domainreservation.Status(m.Status),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
		Version:   m.Version,
	}
}

type outboxModel struct {
	ID            string `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Payload       []byte
	OccurredAt    time.Time
	Aggregate     string
	Headers       []byte
	State         string `gorm:"size:16;index:idx_outbox_due,priority:1"`
	Attempts      int
	NextAttemptAt time.Time `gorm:"index:idx_outbox_due,priority:2"`
	ClaimedBy     string
	ClaimedAt     *time.Time
	SentAt        *time.Time
	LastError     string
}

func (outboxModel) TableName() string { return "app_outbox" }

type idempotencyModel struct {
	Key        string `gorm:"primaryKey"`
	Command    string
	Payload    []byte
	Error      string
	ErrorKind  string
	ErrorCode  string
	ErrorDates []byte
	OccurredAt time.Time
	CreatedAt  time.Time `gorm:"index"`
}

func (idempotencyModel) TableName() string { return "app_idempotency" }
