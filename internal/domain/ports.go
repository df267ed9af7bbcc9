package domain

import (
	"context"
	"time"
)

type HotelRepository interface {
	// Write paths
	CreateHotel(ctx context.Context, h Hotel) error
	// SaveHotel applies p only if the stored version still equals expectedVersion.
	SaveHotel(ctx context.Context, id string, expectedVersion int64, p HotelPatch) (Hotel, error)
	DeleteHotel(ctx context.Context, id string) error

	// Read paths
	GetHotel(ctx context.Context, id string) (Hotel, error)
	ListHotels(ctx context.Context, q HotelsQuery) (HotelsPage, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev ReviewEvent) error
}

// ReviewEvent is emitted after every committed workflow transition.
type ReviewEvent struct {
	HotelID string    `json:"hotel_id"`
	OwnerID string    `json:"owner_id"`
	ActorID string    `json:"actor_id"`
	Action  string    `json:"action"` // create|submit_publish|submit_offline|submit_update|approve|reject|pause|resume|delete
	From    Status    `json:"from,omitempty"`
	To      Status    `json:"to,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

// Read models

// PublicHotel is what consumers see: live fields only, never pending data.
type PublicHotel struct {
	ID string `json:"id"`
	HotelFields
}
