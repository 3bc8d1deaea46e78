package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/money"
)

type RoomRepository struct {
	col *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{col: db.Collection(roomsCollection)}
}

func (r *RoomRepository) ByID(ctx context.Context, id domainrooms.RoomID) (*domainrooms.Room, error) {
	var doc roomDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrooms.ErrRoomNotFound
		}
		return nil, err
	}
	return doc.toRoom(), nil
}

func (r *RoomRepository) Save(ctx context.Context, room *domainrooms.Room) error {
	doc := newRoomDocument(room)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return mapWriteError(err)
}

type roomDocument struct {
	ID           string    `bson:"_id"`
	PropertyID   string    `bson:"property_id"`
	Name         string    `bson:"name"`
	MaxOccupancy int       `bson:"max_occupancy"`
	PriceAmount  int64     `bson:"default_price_amount"`
	Currency     string    `bson:"currency"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func newRoomDocument(room *domainrooms.Room) roomDocument {
	return roomDocument{
		ID:           string(room.ID),
		PropertyID:   string(room.PropertyID),
		Name:         room.Name,
		MaxOccupancy: room.MaxOccupancy,
		PriceAmount:  room.DefaultPrice.Amount,
		Currency:     room.DefaultPrice.Currency,
		UpdatedAt:    room.UpdatedAt.UTC(),
	}
}

func (d roomDocument) toRoom() *domainrooms.Room {
	return &domainrooms.Room{
		ID:           domainrooms.RoomID(d.ID),
		PropertyID:   domainrooms.PropertyID(d.PropertyID),
		Name:         d.Name,
		MaxOccupancy: d.MaxOccupancy,
		DefaultPrice: money.Money{Amount: d.PriceAmount, Currency: d.Currency},
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

var _ domainrooms.Directory = (*RoomRepository)(nil)
