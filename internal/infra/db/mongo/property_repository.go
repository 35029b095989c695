package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "homekrypto/internal/domain/property"
	"homekrypto/internal/domain/shared/money"
)

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("agg_property")}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PropertyRepository) ListActive(ctx context.Context) ([]*domainproperty.Property, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainproperty.Property
	for cur.Next(ctx) {
		var doc propertyDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	doc := newPropertyDocument(p)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type propertyDocument struct {
	ID            string `bson:"_id"`
	Title         string `bson:"title"`
	City          string `bson:"city"`
	Country       string `bson:"country"`
	ImageURL      string `bson:"image_url"`
	PricePerNight int64  `bson:"price_per_night"`
	CleaningFee   int64  `bson:"cleaning_fee"`
	MinNights     int    `bson:"min_nights"`
	MaxGuests     int    `bson:"max_guests"`
	TotalShares   int    `bson:"total_shares"`
	IsActive      bool   `bson:"is_active"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	return propertyDocument{
		ID:            string(p.ID),
		Title:         p.Title,
		City:          p.City,
		Country:       p.Country,
		ImageURL:      p.ImageURL,
		PricePerNight: p.PricePerNight.Amount,
		CleaningFee:   p.CleaningFee.Amount,
		MinNights:     p.MinNights,
		MaxGuests:     p.MaxGuests,
		TotalShares:   p.TotalShares,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt.UnixMilli(),
		UpdatedAt:     p.UpdatedAt.UnixMilli(),
	}
}

func (d propertyDocument) toAggregate() *domainproperty.Property {
	return &domainproperty.Property{
		ID:            domainproperty.ID(d.ID),
		Title:         d.Title,
		City:          d.City,
		Country:       d.Country,
		ImageURL:      d.ImageURL,
		PricePerNight: money.Money{Amount: d.PricePerNight, Currency: money.USD},
		CleaningFee:   money.Money{Amount: d.CleaningFee, Currency: money.USD},
		MinNights:     d.MinNights,
		MaxGuests:     d.MaxGuests,
		TotalShares:   d.TotalShares,
		IsActive:      d.IsActive,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
	}
}
