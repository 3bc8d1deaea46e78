package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/errs"
)

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection(reservationsCollection)}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ID) (*domainreservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreservation.ErrReservationNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Overlapping narrows by the (room_id, check_in_date, check_out_date) index and
// applies the exact boundary rule in process.
func (r *ReservationRepository) Overlapping(ctx context.Context, roomID domainrooms.RoomID, window daterange.Window) ([]*domainreservation.Reservation, error) {
	filter := bson.M{
		"room_id":        string(roomID),
		"status":         string(domainreservation.StatusConfirmed),
		"check_in_date":  bson.M{"$lte": window.To},
		"check_out_date": bson.M{"$gte": window.From},
	}
	list, err := r.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return domainreservation.FilterOverlapping(list, roomID, window), nil
}

func (r *ReservationRepository) ListByRoom(ctx context.Context, roomID domainrooms.RoomID) ([]*domainreservation.Reservation, error) {
	list, err := r.find(ctx, bson.M{"room_id": string(roomID)})
	if err != nil {
		return nil, err
	}
	domainreservation.SortByCheckIn(list)
	return list, nil
}

func (r *ReservationRepository) find(ctx context.Context, filter bson.M) ([]*domainreservation.Reservation, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "check_in_date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []reservationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainreservation.Reservation, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func (r *ReservationRepository) Insert(ctx context.Context, res *domainreservation.Reservation) error {
	doc := newReservationDocument(res)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainreservation.ErrDuplicateReservation
		}
		return mapWriteError(err)
	}
	res.Version = doc.Version
	return nil
}

// Save replaces the stored document when its version still matches.
func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	doc := newReservationDocument(res)
	filter := bson.M{"_id": doc.ID, "version": res.Version}
	doc.Version = res.Version + 1
	out, err := r.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return mapWriteError(err)
	}
	if out.MatchedCount == 0 {
		return errs.Conflict(errs.CodeConcurrentWrite, "reservation was modified concurrently", nil, nil)
	}
	res.Version = doc.Version
	return nil
}

type reservationDocument struct {
	ID         string    `bson:"_id"`
	RoomID     string    `bson:"room_id"`
	CheckIn    time.Time `bson:"check_in_date"`
	CheckOut   time.Time `bson:"check_out_date"`
	GuestCount int       `bson:"guest_count"`
	Status     string    `bson:"status"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
	Version    int64     `bson:"version"`
}

func newReservationDocument(r *domainreservation.Reservation) reservationDocument {
	return reservationDocument{
		ID:         string(r.ID),
		RoomID:     string(r.RoomID),
		CheckIn:    daterange.Day(r.Range.CheckIn),
		CheckOut:   daterange.Day(r.Range.CheckOut),
		GuestCount: r.Guests,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
		Version:    r.Version,
	}
}

func (d reservationDocument) toAggregate() *domainreservation.Reservation {
	return &domainreservation.Reservation{
		ID:        domainreservation.ID(d.ID),
		RoomID:    domainrooms.RoomID(d.RoomID),
		Range:     daterange.DateRange{CheckIn: daterange.Day(d.CheckIn), CheckOut: daterange.Day(d.CheckOut)},
		Guests:    d.GuestCount,
		Status:    domainreservation.Status(d.Status),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
		Version:   d.Version,
	}
}

var _ domainreservation.Ledger = (*ReservationRepository)(nil)
