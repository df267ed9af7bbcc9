package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_review/internal/adapters/observability"
	"hotel_review/internal/domain"
)

type ReviewService struct {
	repo   domain.HotelRepository
	cache  domain.Cache
	events domain.EventPublisher
	now    func() time.Time
}

func NewReviewService(r domain.HotelRepository, cache domain.Cache, ev domain.EventPublisher) *ReviewService {
	return &ReviewService{repo: r, cache: cache, events: ev, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a new draft owned by the calling merchant.
func (s *ReviewService) Create(ctx context.Context, actor domain.Actor, fields domain.FieldsPatch) (h domain.Hotel, err error) {
	defer func() { observability.ObserveTransition("create", outcome(err)) }()

	if actor.Role != domain.RoleMerchant || actor.ID == "" {
		return domain.Hotel{}, fmt.Errorf("%w: only merchants create hotels", domain.ErrForbidden)
	}
	if fields.Name == nil {
		return domain.Hotel{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if err := domain.ValidateFields(fields); err != nil {
		return domain.Hotel{}, err
	}

	now := s.now()
	h = domain.Hotel{
		ID:          uuid.NewString(),
		OwnerID:     actor.ID,
		HotelFields: fields.MergeOver(domain.HotelFields{}),
		Status:      domain.StatusDraft,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateHotel(ctx, h); err != nil {
		return domain.Hotel{}, fmt.Errorf("create hotel: %w", err)
	}
	s.emit(ctx, actor, "create", h, h, "")
	log.Info().Str("hotel", h.ID).Str("owner", actor.ID).Msg("hotel created")
	return h, nil
}

func (s *ReviewService) SubmitPublish(ctx context.Context, actor domain.Actor, id string) (domain.Hotel, error) {
	return s.apply(ctx, actor, id, "submit_publish", canSubmit, domain.SubmitPublish)
}

func (s *ReviewService) SubmitOffline(ctx context.Context, actor domain.Actor, id string) (domain.Hotel, error) {
	return s.apply(ctx, actor, id, "submit_offline", canSubmit, domain.SubmitOffline)
}

func (s *ReviewService) SubmitUpdate(ctx context.Context, actor domain.Actor, id string, fields domain.FieldsPatch) (domain.Hotel, error) {
	return s.apply(ctx, actor, id, "submit_update", canSubmit, func(h domain.Hotel) (domain.Transition, error) {
		return domain.SubmitUpdate(h, fields)
	})
}

func (s *ReviewService) Approve(ctx context.Context, actor domain.Actor, id string) (domain.Hotel, error) {
	return s.apply(ctx, actor, id, "approve", canReview, domain.Approve)
}

func (s *ReviewService) Reject(ctx context.Context, actor domain.Actor, id, reason string) (domain.Hotel, error) {
	return s.apply(ctx, actor, id, "reject", canReview, func(h domain.Hotel) (domain.Transition, error) {
		return domain.Reject(h, reason)
	})
}

func (s *ReviewService) Pause(ctx context.Context, actor domain.Actor, id string) (domain.Hotel, error) {
	return s.apply(ctx, actor, id, "pause", canToggle, domain.Pause)
}

func (s *ReviewService) Resume(ctx context.Context, actor domain.Actor, id string) (domain.Hotel, error) {
	return s.apply(ctx, actor, id, "resume", canToggle, domain.Resume)
}

// Delete hard-removes the hotel whatever its status.
func (s *ReviewService) Delete(ctx context.Context, actor domain.Actor, id string) (err error) {
	defer func() { observability.ObserveTransition("delete", outcome(err)) }()

	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return err
	}
	if !canSubmit(actor, h) {
		return fmt.Errorf("%w: %s may not delete hotel %s", domain.ErrForbidden, actor.ID, id)
	}
	if err := s.repo.DeleteHotel(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.emit(ctx, actor, "delete", h, domain.Hotel{}, "")
	log.Info().Str("hotel", id).Str("actor", actor.ID).Msg("hotel deleted")
	return nil
}

// apply runs one workflow step as load -> authorize -> transition -> CAS save.
// Nothing is written unless every precondition holds.
func (s *ReviewService) apply(
	ctx context.Context,
	actor domain.Actor,
	id, action string,
	allow func(domain.Actor, domain.Hotel) bool,
	step func(domain.Hotel) (domain.Transition, error),
) (saved domain.Hotel, err error) {
	defer func() { observability.ObserveTransition(action, outcome(err)) }()

	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if !allow(actor, h) {
		return domain.Hotel{}, fmt.Errorf("%w: %s may not %s hotel %s", domain.ErrForbidden, actor.ID, action, id)
	}
	tr, err := step(h)
	if err != nil {
		return domain.Hotel{}, err
	}
	saved, err = s.repo.SaveHotel(ctx, id, h.Version, tr.Patch)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			log.Warn().Str("hotel", id).Str("action", action).Int64("version", h.Version).Msg("concurrent modification")
		}
		return domain.Hotel{}, err
	}

	s.invalidate(ctx, id)
	reason := ""
	if action == "reject" && saved.RejectReason != nil {
		reason = *saved.RejectReason
	}
	s.emit(ctx, actor, action, h, saved, reason)
	log.Info().
		Str("hotel", id).
		Str("actor", actor.ID).
		Str("action", action).
		Str("from", string(h.Status)).
		Str("to", string(saved.Status)).
		Msg("hotel transition")
	return saved, nil
}

func canSubmit(a domain.Actor, h domain.Hotel) bool { return a.IsAdmin() || a.Owns(h) }

func canReview(a domain.Actor, _ domain.Hotel) bool { return a.IsAdmin() }

func canToggle(a domain.Actor, h domain.Hotel) bool { return a.Owns(h) }

func (s *ReviewService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, hotelKey(id)); err != nil {
		log.Warn().Err(err).Str("hotel", id).Msg("cache evict failed")
	}
}

// emit is best effort: the transition is already committed.
func (s *ReviewService) emit(ctx context.Context, actor domain.Actor, action string, before, after domain.Hotel, reason string) {
	if s.events == nil {
		return
	}
	ev := domain.ReviewEvent{
		HotelID: before.ID,
		OwnerID: before.OwnerID,
		ActorID: actor.ID,
		Action:  action,
		From:    before.Status,
		To:      after.Status,
		Reason:  reason,
		At:      s.now(),
	}
	if action == "create" {
		ev.From = ""
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("hotel", ev.HotelID).Str("action", action).Msg("review event publish failed")
	}
}

func hotelKey(id string) string { return "hotel:" + strings.ToLower(id) }

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	}
	return "error"
}
