package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "homekrypto/internal/domain/booking"
	domainpricing "homekrypto/internal/domain/pricing"
	domainproperty "homekrypto/internal/domain/property"
	domainrange "homekrypto/internal/domain/shared/daterange"
	"homekrypto/internal/domain/shared/money"
	domainshares "homekrypto/internal/domain/shares"
)

func storedBooking(t *testing.T, id string, createdAt time.Time) *domainbooking.Booking {
	t.Helper()
	checkIn := createdAt.AddDate(0, 0, 30)
	dr, err := domainrange.New(checkIn, checkIn.AddDate(0, 0, 7))
	require.NoError(t, err)

	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:         domainbooking.ID(id),
		UserID:     "user-1",
		PropertyID: "prop-1",
		Range:      dr,
		Guests:     2,
		Quote: pricingQuote(),
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
	return b
}

func pricingQuote() domainpricing.Quote {
	return domainpricing.Quote{
		Nights:         7,
		BillableNights: 7,
		PricePerNight:  money.Must(28571, money.USD),
		CleaningFee:    money.Must(9000, money.USD),
		SubtotalUsd:    money.Must(199997, money.USD),
		TotalUsd:       money.Must(208997, money.USD),
		Currency:       money.USD,
	}
}

func TestBookingRepositoryVersioning(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	b := storedBooking(t, "bkg-1", time.Now().UTC())

	require.NoError(t, repo.Save(ctx, b))
	assert.Equal(t, int64(1), b.Version)

	require.NoError(t, repo.Save(ctx, b))
	assert.Equal(t, int64(2), b.Version)

	// A writer holding a stale version loses.
	b.Version = 1
	assert.ErrorIs(t, repo.Save(ctx, b), ErrConcurrentUpdate)
}

func TestBookingRepositoryByID(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	_, err := repo.ByID(ctx, "bkg-missing")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)

	b := storedBooking(t, "bkg-1", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, b))

	got, err := repo.ByID(ctx, "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestBookingRepositoryListByUserNewestFirst(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, storedBooking(t, "bkg-old", base.Add(-2*time.Hour))))
	require.NoError(t, repo.Save(ctx, storedBooking(t, "bkg-new", base)))

	listed, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, domainbooking.ID("bkg-new"), listed[0].ID)
	assert.Equal(t, domainbooking.ID("bkg-old"), listed[1].ID)

	other, err := repo.ListByUser(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestShareLedgerFreeWeekClaimIsOneShot(t *testing.T) {
	ledger := NewShareLedger()
	ctx := context.Background()
	require.NoError(t, ledger.SetPosition(ctx, "user-1", "prop-1", 4))

	ownership, err := ledger.Ownership(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	assert.Equal(t, 4, ownership.SharesOwned)
	assert.False(t, ownership.HasUsedFreeWeek)

	require.NoError(t, ledger.MarkFreeWeekUsed(ctx, "user-1", "prop-1"))
	assert.ErrorIs(t, ledger.MarkFreeWeekUsed(ctx, "user-1", "prop-1"), domainshares.ErrFreeWeekAlreadyUsed)

	ownership, err = ledger.Ownership(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	assert.True(t, ownership.HasUsedFreeWeek)

	// Scoped per (user, property) pair.
	assert.NoError(t, ledger.MarkFreeWeekUsed(ctx, "user-1", "prop-2"))
	assert.NoError(t, ledger.MarkFreeWeekUsed(ctx, "user-2", "prop-1"))
}

func TestShareLedgerUnknownPositionIsZero(t *testing.T) {
	ledger := NewShareLedger()

	ownership, err := ledger.Ownership(context.Background(), "user-9", "prop-9")
	require.NoError(t, err)
	assert.Equal(t, 0, ownership.SharesOwned)
	assert.False(t, ownership.HasShares())
}

func TestPropertyRepositoryListActive(t *testing.T) {
	repo := NewPropertyRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	active, err := domainproperty.New(domainproperty.CreateParams{
		ID: "prop-1", Title: "Villa A", PricePerNightCents: 28571, Active: true, Now: now,
	})
	require.NoError(t, err)
	inactive, err := domainproperty.New(domainproperty.CreateParams{
		ID: "prop-2", Title: "Villa B", PricePerNightCents: 30000, Now: now.Add(time.Second),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, active))
	require.NoError(t, repo.Save(ctx, inactive))

	listed, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, domainproperty.ID("prop-1"), listed[0].ID)

	_, err = repo.ByID(ctx, "prop-3")
	assert.ErrorIs(t, err, domainproperty.ErrNotFound)
}
