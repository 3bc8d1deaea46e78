package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincalendar "lodging/internal/domain/calendar"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/money"
)

// CalendarRepository stores one document per room and date in
// room_date_entries, unique on (room_id, date).
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection(entriesCollection)}
}

func (r *CalendarRepository) Entries(ctx context.Context, roomID domainrooms.RoomID, window daterange.Window) ([]domaincalendar.Entry, error) {
	filter := bson.M{
		"room_id": string(roomID),
		"date":    bson.M{"$gte": window.From, "$lte": window.To},
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []entryDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domaincalendar.Entry, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toEntry())
	}
	return out, nil
}

// Upsert writes all entries in one ordered bulk write.
func (r *CalendarRepository) Upsert(ctx context.Context, entries []domaincalendar.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(entries))
	for _, e := range entries {
		doc := newEntryDocument(e)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"room_id": doc.RoomID, "date": doc.Date}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	_, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return mapWriteError(err)
}

type entryDocument struct {
	RoomID      string    `bson:"room_id"`
	Date        time.Time `bson:"date"`
	Status      string    `bson:"status"`
	PriceAmount *int64    `bson:"price_amount,omitempty"`
	Currency    string    `bson:"currency,omitempty"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func newEntryDocument(e domaincalendar.Entry) entryDocument {
	doc := entryDocument{
		RoomID:    string(e.RoomID),
		Date:      daterange.Day(e.Date),
		Status:    string(e.Status),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
	if e.Price != nil {
		amount := e.Price.Amount
		doc.PriceAmount = &amount
		doc.Currency = e.Price.Currency
	}
	return doc
}

func (d entryDocument) toEntry() domaincalendar.Entry {
	e := domaincalendar.Entry{
		RoomID:    domainrooms.RoomID(d.RoomID),
		Date:      daterange.Day(d.Date),
		Status:    domaincalendar.ManualStatus(d.Status),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.PriceAmount != nil {
		e.Price = &money.Money{Amount: *d.PriceAmount, Currency: d.Currency}
	}
	return e
}

var _ domaincalendar.Store = (*CalendarRepository)(nil)
