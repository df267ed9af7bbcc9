// Package memory is an in-process HotelRepository with the same version
// check as the MySQL store. Used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hotel_review/internal/domain"
)

type Repo struct {
	mu     sync.Mutex
	hotels map[string]domain.Hotel
	now    func() time.Time
}

func New() *Repo {
	return &Repo{hotels: map[string]domain.Hotel{}, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hotels[h.ID]; ok {
		return fmt.Errorf("%w: hotel %s already exists", domain.ErrConflict, h.ID)
	}
	if h.Version == 0 {
		h.Version = 1
	}
	r.hotels[h.ID] = h.Clone()
	return nil
}

func (r *Repo) SaveHotel(ctx context.Context, id string, expectedVersion int64, p domain.HotelPatch) (domain.Hotel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.hotels[id]
	if !ok {
		return domain.Hotel{}, fmt.Errorf("%w: hotel %s", domain.ErrNotFound, id)
	}
	if cur.Version != expectedVersion {
		return domain.Hotel{}, fmt.Errorf("%w: hotel %s at version %d, expected %d", domain.ErrConflict, id, cur.Version, expectedVersion)
	}
	next := cur.Apply(p)
	next.Version = cur.Version + 1
	next.UpdatedAt = r.now()
	r.hotels[id] = next
	return next.Clone(), nil
}

func (r *Repo) DeleteHotel(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hotels[id]; !ok {
		return fmt.Errorf("%w: hotel %s", domain.ErrNotFound, id)
	}
	delete(r.hotels, id)
	return nil
}

func (r *Repo) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hotels[id]
	if !ok {
		return domain.Hotel{}, fmt.Errorf("%w: hotel %s", domain.ErrNotFound, id)
	}
	return h.Clone(), nil
}

// ListHotels orders newest first, matching the MySQL store.
func (r *Repo) ListHotels(ctx context.Context, q domain.HotelsQuery) (domain.HotelsPage, error) {
	r.mu.Lock()
	var all []domain.Hotel
	for _, h := range r.hotels {
		if q.OwnerID != nil && h.OwnerID != *q.OwnerID {
			continue
		}
		if q.Status != nil && h.Status != *q.Status {
			continue
		}
		all = append(all, h.Clone())
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	page := domain.HotelsPage{Total: len(all)}
	if q.Offset >= len(all) {
		return page, nil
	}
	end := len(all)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	page.Items = all[q.Offset:end]
	return page, nil
}
