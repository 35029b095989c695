package shares

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainproperty "homekrypto/internal/domain/property"
	"homekrypto/internal/infra/storage/memory"
)

func newHandler(t *testing.T) (*UserSharesHandler, *memory.ShareLedger) {
	t.Helper()
	props := memory.NewPropertyRepository()
	ledger := memory.NewShareLedger()

	prop, err := domainproperty.New(domainproperty.CreateParams{
		ID:                 "prop-1",
		Title:              "Marbella Beachfront Villa",
		PricePerNightCents: 28571,
		TotalShares:        100,
		Active:             true,
	})
	require.NoError(t, err)
	require.NoError(t, props.Save(context.Background(), prop))

	factory := memory.Factory{
		PropertiesRepo: props,
		BookingsRepo:   memory.NewBookingRepository(),
		ShareLedger:    ledger,
	}
	return &UserSharesHandler{UoWFactory: factory}, ledger
}

func TestUserSharesPosition(t *testing.T) {
	handler, ledger := newHandler(t)
	ctx := context.Background()
	require.NoError(t, ledger.SetPosition(ctx, "user-1", "prop-1", 5))

	out, err := handler.Handle(ctx, UserSharesQuery{UserID: "user-1", PropertyID: "prop-1"})
	require.NoError(t, err)

	assert.Equal(t, "prop-1", out.PropertyID)
	assert.True(t, out.HasShares)
	assert.Equal(t, 5, out.TotalShares)
	assert.False(t, out.FreeWeekUsed)

	require.NoError(t, ledger.MarkFreeWeekUsed(ctx, "user-1", "prop-1"))
	out, err = handler.Handle(ctx, UserSharesQuery{UserID: "user-1", PropertyID: "prop-1"})
	require.NoError(t, err)
	assert.True(t, out.FreeWeekUsed)
}

func TestUserSharesZeroPosition(t *testing.T) {
	handler, _ := newHandler(t)

	out, err := handler.Handle(context.Background(), UserSharesQuery{UserID: "user-2", PropertyID: "prop-1"})
	require.NoError(t, err)
	assert.False(t, out.HasShares)
	assert.Equal(t, 0, out.TotalShares)
}

func TestUserSharesUnknownProperty(t *testing.T) {
	handler, _ := newHandler(t)

	_, err := handler.Handle(context.Background(), UserSharesQuery{UserID: "user-1", PropertyID: "prop-missing"})
	assert.ErrorIs(t, err, domainproperty.ErrNotFound)
}

func TestUserSharesRequiresUser(t *testing.T) {
	handler, _ := newHandler(t)

	_, err := handler.Handle(context.Background(), UserSharesQuery{PropertyID: "prop-1"})
	assert.Error(t, err)
}
