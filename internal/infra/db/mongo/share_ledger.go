package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "homekrypto/internal/domain/property"
	domainshares "homekrypto/internal/domain/shares"
	domainuser "homekrypto/internal/domain/user"
)

// ShareLedger reads share positions and claims the one-time free week.
//
// The claim is an insert into a collection whose _id is the (user, property)
// pair, so Mongo's primary-key uniqueness is the compare-and-set: exactly one
// concurrent claimer gets the insert, everyone else gets a duplicate-key
// error mapped to ErrFreeWeekAlreadyUsed.
type ShareLedger struct {
	positions *mongo.Collection
	claims    *mongo.Collection
}

func NewShareLedger(db *mongo.Database) *ShareLedger {
	return &ShareLedger{
		positions: db.Collection("share_positions"),
		claims:    db.Collection("share_freeweek_claims"),
	}
}

func (l *ShareLedger) Ownership(ctx context.Context, userID domainuser.ID, propertyID domainproperty.ID) (domainshares.Ownership, error) {
	out := domainshares.Ownership{UserID: userID, PropertyID: propertyID}

	var pos positionDocument
	err := l.positions.FindOne(ctx, bson.M{"_id": positionKey(userID, propertyID)}).Decode(&pos)
	switch {
	case err == nil:
		out.SharesOwned = pos.SharesOwned
	case errors.Is(err, mongo.ErrNoDocuments):
		// No position document means zero shares, not an error.
	default:
		return domainshares.Ownership{}, err
	}

	err = l.claims.FindOne(ctx, bson.M{"_id": positionKey(userID, propertyID)}).Err()
	switch {
	case err == nil:
		out.HasUsedFreeWeek = true
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		return domainshares.Ownership{}, err
	}
	return out, nil
}

func (l *ShareLedger) MarkFreeWeekUsed(ctx context.Context, userID domainuser.ID, propertyID domainproperty.ID) error {
	doc := claimDocument{
		ID:        positionKey(userID, propertyID),
		UserID:    string(userID),
		ClaimedAt: time.Now().UTC().UnixMilli(),
	}
	_, err := l.claims.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainshares.ErrFreeWeekAlreadyUsed
		}
		return err
	}
	return nil
}

// SetPosition replaces the aggregate share count; the token ledger sync job
// and fixtures loading are the only writers.
func (l *ShareLedger) SetPosition(ctx context.Context, userID domainuser.ID, propertyID domainproperty.ID, shares int) error {
	doc := positionDocument{
		ID:          positionKey(userID, propertyID),
		UserID:      string(userID),
		PropertyID:  string(propertyID),
		SharesOwned: shares,
		UpdatedAt:   time.Now().UTC().UnixMilli(),
	}
	_, err := l.positions.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func positionKey(userID domainuser.ID, propertyID domainproperty.ID) string {
	return string(userID) + ":" + string(propertyID)
}

type positionDocument struct {
	ID          string `bson:"_id"`
	UserID      string `bson:"user_id"`
	PropertyID  string `bson:"property_id"`
	SharesOwned int    `bson:"shares_owned"`
	UpdatedAt   int64  `bson:"updated_at"`
}

type claimDocument struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"user_id"`
	ClaimedAt int64  `bson:"claimed_at"`
}

var _ domainshares.Ledger = (*ShareLedger)(nil)
