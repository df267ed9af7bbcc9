package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"hotel_review/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type QueryService struct {
	repo     domain.HotelRepository
	cache    domain.Cache
	cacheTTL time.Duration
	loads    singleflight.Group
}

func NewQueryService(r domain.HotelRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

// GetHotel returns the full back-office record, pending review included.
func (s *QueryService) GetHotel(ctx context.Context, actor domain.Actor, id string) (domain.Hotel, error) {
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if !actor.IsAdmin() && !actor.Owns(h) {
		return domain.Hotel{}, fmt.Errorf("%w: hotel %s", domain.ErrForbidden, id)
	}
	return h, nil
}

// GetPublicHotel serves the live fields of a visible hotel. Pending edits
// never leak here; consumers keep seeing the last approved content.
func (s *QueryService) GetPublicHotel(ctx context.Context, id string) (domain.PublicHotel, error) {
	key := hotelKey(id)
	var ph domain.PublicHotel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &ph); ok {
			return ph, nil
		}
	}

	// collapse concurrent misses for the same hotel into one store read;
	// the load outlives any single caller going away
	v, err, _ := s.loads.Do(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		h, err := s.repo.GetHotel(ctx, id)
		if err != nil {
			return nil, err
		}
		if !h.Visible() {
			return nil, fmt.Errorf("%w: hotel %s is not online", domain.ErrNotFound, id)
		}
		out := domain.PublicHotel{ID: h.ID, HotelFields: h.Clone().HotelFields}
		if s.cache != nil {
			s.fill(ctx, key, h, out)
		}
		return out, nil
	})
	if err != nil {
		return domain.PublicHotel{}, err
	}
	return v.(domain.PublicHotel), nil
}

// fill caches out, then re-reads the row. A transition that committed
// between the load and the Set has already run its eviction, so the entry
// we just wrote would outlive it; drop it in that case.
func (s *QueryService) fill(ctx context.Context, key string, loaded domain.Hotel, out domain.PublicHotel) {
	if err := s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("hotel", loaded.ID).Msg("cache fill failed")
		return
	}
	cur, err := s.repo.GetHotel(ctx, loaded.ID)
	if err == nil && cur.Version == loaded.Version {
		return
	}
	if err := s.cache.Del(ctx, key); err != nil {
		log.Warn().Err(err).Str("hotel", loaded.ID).Msg("stale cache evict failed")
	}
}

// ListHotels scopes merchants to their own hotels; admins see everything.
func (s *QueryService) ListHotels(ctx context.Context, actor domain.Actor, q domain.HotelsQuery) (domain.HotelsPage, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleMerchant:
		owner := actor.ID
		q.OwnerID = &owner
	default:
		return domain.HotelsPage{}, fmt.Errorf("%w: unknown role %q", domain.ErrForbidden, actor.Role)
	}
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.repo.ListHotels(ctx, q)
}
