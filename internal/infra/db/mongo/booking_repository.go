package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "homekrypto/internal/domain/booking"
	domainproperty "homekrypto/internal/domain/property"
	domainrange "homekrypto/internal/domain/shared/daterange"
	"homekrypto/internal/domain/shared/money"
	domainuser "homekrypto/internal/domain/user"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save writes with a version-filtered upsert: the filter matches the version
// the caller read, so a concurrent writer makes the update match nothing and
// the losing save fails instead of clobbering.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID domainuser.ID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": string(userID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID                  string        `bson:"_id"`
	UserID              string        `bson:"user_id"`
	PropertyID          string        `bson:"property_id"`
	Range               rangeDocument `bson:"range"`
	Nights              int           `bson:"nights"`
	Guests              int           `bson:"guests"`
	Currency            string        `bson:"currency"`
	TotalUsd            int64         `bson:"total_usd"`
	TotalHkt            int64         `bson:"total_hkt"`
	CleaningFee         int64         `bson:"cleaning_fee"`
	IsFreeWeek          bool          `bson:"is_free_week"`
	Status              string        `bson:"status"`
	PaymentReference    string        `bson:"payment_reference"`
	NeedsReconciliation bool          `bson:"needs_reconciliation"`
	RefundAmount        int64         `bson:"refund_amount"`
	RefundCurrency      string        `bson:"refund_currency"`
	CanceledAt          int64         `bson:"canceled_at"`
	CreatedAt           int64         `bson:"created_at"`
	UpdatedAt           int64         `bson:"updated_at"`
	Version             int64         `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:                  string(b.ID),
		UserID:              string(b.UserID),
		PropertyID:          string(b.PropertyID),
		Range:               rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Nights:              b.Nights,
		Guests:              b.Guests,
		Currency:            b.Currency,
		TotalUsd:            b.TotalUsd.Amount,
		TotalHkt:            b.TotalHkt.Amount,
		CleaningFee:         b.CleaningFee.Amount,
		IsFreeWeek:          b.IsFreeWeek,
		Status:              string(b.Status),
		PaymentReference:    b.PaymentReference,
		NeedsReconciliation: b.NeedsReconciliation,
		RefundAmount:        b.RefundAmount.Amount,
		RefundCurrency:      b.RefundAmount.Currency,
		CreatedAt:           b.CreatedAt.UnixMilli(),
		UpdatedAt:           b.UpdatedAt.UnixMilli(),
		Version:             b.Version,
	}
	if !b.CanceledAt.IsZero() {
		doc.CanceledAt = b.CanceledAt.UnixMilli()
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	dr := domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)}
	agg := &domainbooking.Booking{
		ID:                  domainbooking.ID(d.ID),
		UserID:              domainuser.ID(d.UserID),
		PropertyID:          domainproperty.ID(d.PropertyID),
		Range:               dr,
		Nights:              d.Nights,
		Guests:              d.Guests,
		Currency:            d.Currency,
		TotalUsd:            money.Money{Amount: d.TotalUsd, Currency: money.USD},
		TotalHkt:            money.Money{Amount: d.TotalHkt, Currency: money.HKT},
		CleaningFee:         money.Money{Amount: d.CleaningFee, Currency: money.USD},
		IsFreeWeek:          d.IsFreeWeek,
		Status:              domainbooking.Status(d.Status),
		PaymentReference:    d.PaymentReference,
		NeedsReconciliation: d.NeedsReconciliation,
		RefundAmount:        money.Money{Amount: d.RefundAmount, Currency: d.RefundCurrency},
		CreatedAt:           timestampToTime(d.CreatedAt),
		UpdatedAt:           timestampToTime(d.UpdatedAt),
		Version:             d.Version,
	}
	if d.CanceledAt != 0 {
		agg.CanceledAt = timestampToTime(d.CanceledAt)
	}
	return agg
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
