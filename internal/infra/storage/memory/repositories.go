package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	domainbooking "homekrypto/internal/domain/booking"
	domainproperty "homekrypto/internal/domain/property"
	domainshares "homekrypto/internal/domain/shares"
	domainuser "homekrypto/internal/domain/user"
)

// ErrConcurrentUpdate mirrors the version conflict the Mongo store reports.
var ErrConcurrentUpdate = errors.New("memory: concurrent update detected")

// PropertyRepository is an in-memory implementation for dev mode and tests.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.ID]*domainproperty.Property
}

// NewPropertyRepository builds an empty repository.
func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperty.ID]*domainproperty.Property)}
}

// ByID returns a property or property.ErrNotFound.
func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prop, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrNotFound
	}
	return prop, nil
}

// ListActive returns active properties ordered by creation time.
func (r *PropertyRepository) ListActive(ctx context.Context) ([]*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainproperty.Property, 0, len(r.items))
	for _, prop := range r.items {
		if prop.IsActive {
			out = append(out, prop)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Save stores/updates a property entry.
func (r *PropertyRepository) Save(ctx context.Context, prop *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[prop.ID] = prop
	return nil
}

// BookingRepository stores bookings in memory with the same optimistic
// concurrency contract as the Mongo store: a save must carry the version it
// read or it loses.
type BookingRepository struct {
	mu       sync.RWMutex
	items    map[domainbooking.ID]*domainbooking.Booking
	versions map[domainbooking.ID]int64
}

// NewBookingRepository builds an empty booking repo.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		items:    make(map[domainbooking.ID]*domainbooking.Booking),
		versions: make(map[domainbooking.ID]int64),
	}
}

// ByID fetches a booking or booking.ErrNotFound.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bkg, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return bkg, nil
}

// Save stores the current booking state, bumping the version.
func (r *BookingRepository) Save(ctx context.Context, bkg *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.versions[bkg.ID]; ok && current != bkg.Version {
		return ErrConcurrentUpdate
	}
	bkg.Version++
	r.items[bkg.ID] = bkg
	r.versions[bkg.ID] = bkg.Version
	return nil
}

// ListByUser returns the user's bookings newest-first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID domainuser.ID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, bkg := range r.items {
		if bkg.UserID == userID {
			matches = append(matches, bkg)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// ShareLedger keeps share positions and free-week claims in memory. The
// claim map under the mutex gives the same winner-takes-it semantics as the
// unique-keyed Mongo collection.
type ShareLedger struct {
	mu        sync.Mutex
	positions map[string]int
	claims    map[string]time.Time
}

// NewShareLedger builds an empty ledger.
func NewShareLedger() *ShareLedger {
	return &ShareLedger{
		positions: make(map[string]int),
		claims:    make(map[string]time.Time),
	}
}

func (l *ShareLedger) Ownership(ctx context.Context, userID domainuser.ID, propertyID domainproperty.ID) (domainshares.Ownership, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(userID, propertyID)
	_, claimed := l.claims[key]
	return domainshares.Ownership{
		UserID:          userID,
		PropertyID:      propertyID,
		SharesOwned:     l.positions[key],
		HasUsedFreeWeek: claimed,
	}, nil
}

func (l *ShareLedger) MarkFreeWeekUsed(ctx context.Context, userID domainuser.ID, propertyID domainproperty.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(userID, propertyID)
	if _, claimed := l.claims[key]; claimed {
		return domainshares.ErrFreeWeekAlreadyUsed
	}
	l.claims[key] = time.Now().UTC()
	return nil
}

// SetPosition seeds or replaces an aggregate share count.
func (l *ShareLedger) SetPosition(ctx context.Context, userID domainuser.ID, propertyID domainproperty.ID, shares int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions[ledgerKey(userID, propertyID)] = shares
	return nil
}

func ledgerKey(userID domainuser.ID, propertyID domainproperty.ID) string {
	return string(userID) + ":" + string(propertyID)
}

var (
	_ domainproperty.Repository = (*PropertyRepository)(nil)
	_ domainbooking.Repository  = (*BookingRepository)(nil)
	_ domainshares.Ledger       = (*ShareLedger)(nil)
)
