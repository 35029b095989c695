package me

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"homekrypto/internal/app/dto"
	handlersupport "homekrypto/internal/app/handlers/support"
	"homekrypto/internal/app/queries"
	"homekrypto/internal/app/uow"
	domainproperty "homekrypto/internal/domain/property"
	domainuser "homekrypto/internal/domain/user"
)

const listMyBookingsKey = "me.bookings.list"

type ListMyBookingsQuery struct {
	UserID string
}

func (q ListMyBookingsQuery) Key() string { return listMyBookingsKey }

type ListMyBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle lists the caller's bookings newest-first, each joined with a display
// snapshot of its property. A property that has since disappeared degrades to
// an id-only snapshot rather than failing the whole listing.
func (h *ListMyBookingsHandler) Handle(ctx context.Context, q ListMyBookingsQuery) (dto.BookingCollection, error) {
	userID := strings.TrimSpace(q.UserID)
	if userID == "" {
		return dto.BookingCollection{}, errors.New("me: user id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByUser(execCtx, domainuser.ID(userID))
	if err != nil {
		return dto.BookingCollection{}, err
	}

	cache := make(map[domainproperty.ID]*domainproperty.Property)
	items := make([]dto.BookingSummary, 0, len(bookings))
	for _, bkg := range bookings {
		prop, ok := cache[bkg.PropertyID]
		if !ok {
			prop, err = unit.Properties().ByID(execCtx, bkg.PropertyID)
			if err != nil {
				prop = nil
				if h.Logger != nil {
					h.Logger.Warn("property snapshot missing for booking",
						"booking_id", bkg.ID, "property_id", bkg.PropertyID, "error", err)
				}
			}
			cache[bkg.PropertyID] = prop
		}
		items = append(items, dto.MapBookingSummary(bkg, prop))
	}

	if h.Logger != nil {
		h.Logger.Debug("bookings listed", "user_id", userID, "count", len(items))
	}
	return dto.BookingCollection{Items: items}, nil
}

var _ queries.Handler[ListMyBookingsQuery, dto.BookingCollection] = (*ListMyBookingsHandler)(nil)
