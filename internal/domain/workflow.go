package domain

import (
	"fmt"
	"strings"
)

// Transition is the outcome of one workflow step: the record to persist and
// the sparse patch that turns the current row into it.
type Transition struct {
	Next  Hotel
	Patch HotelPatch
}

func transition(h Hotel, p HotelPatch) Transition {
	return Transition{Next: h.Apply(p), Patch: p}
}

func submit(h Hotel, action PendingAction, data *HotelFields) (Transition, error) {
	// one outstanding review per hotel; snapshotting under_review as the
	// original status would make the rollback target unrecoverable
	if h.Status == StatusUnderReview {
		return Transition{}, fmt.Errorf("%w: hotel %s already has a pending %s review", ErrInvalidState, h.ID, deref(h.PendingAction))
	}
	under := StatusUnderReview
	p := HotelPatch{
		Status:         &under,
		OriginalStatus: SetTo(h.Status),
		PendingAction:  SetTo(action),
		PendingData:    SetNull[HotelFields](),
		RejectReason:   SetNull[string](),
	}
	if data != nil {
		p.PendingData = SetTo(*data)
	}
	return transition(h, p), nil
}

func SubmitPublish(h Hotel) (Transition, error) { return submit(h, ActionPublish, nil) }

func SubmitOffline(h Hotel) (Transition, error) { return submit(h, ActionOffline, nil) }

// SubmitUpdate stores the proposal merged over the current live fields.
// The live fields stay as they are until an admin approves.
func SubmitUpdate(h Hotel, proposed FieldsPatch) (Transition, error) {
	if err := ValidateFields(proposed); err != nil {
		return Transition{}, err
	}
	if proposed.Empty() {
		return Transition{}, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	merged := proposed.MergeOver(h.HotelFields)
	return submit(h, ActionUpdate, &merged)
}

func Approve(h Hotel) (Transition, error) {
	if err := requireReview(h); err != nil {
		return Transition{}, err
	}
	p := clearReview()
	switch *h.PendingAction {
	case ActionPublish:
		s := StatusPublished
		p.Status = &s
	case ActionOffline:
		s := StatusOffline
		p.Status = &s
	case ActionUpdate:
		if h.PendingData == nil {
			return Transition{}, fmt.Errorf("%w: update review on %s has no pending data", ErrInvalidState, h.ID)
		}
		p.Fields = FullPatch(*h.PendingData)
		s := *h.OriginalStatus
		p.Status = &s
	default:
		return Transition{}, fmt.Errorf("%w: unknown pending action %q", ErrInvalidState, *h.PendingAction)
	}
	p.RejectReason = SetNull[string]()
	return transition(h, p), nil
}

func Reject(h Hotel, reason string) (Transition, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Transition{}, fmt.Errorf("%w: reject reason is required", ErrValidation)
	}
	if err := requireReview(h); err != nil {
		return Transition{}, err
	}
	p := clearReview()
	s := *h.OriginalStatus
	p.Status = &s
	p.RejectReason = SetTo(reason)
	return transition(h, p), nil
}

// Pause and Resume toggle visibility without admin review.
func Pause(h Hotel) (Transition, error) {
	return toggle(h, StatusPublished, StatusPaused)
}

func Resume(h Hotel) (Transition, error) {
	return toggle(h, StatusPaused, StatusPublished)
}

func toggle(h Hotel, from, to Status) (Transition, error) {
	if h.Status != from {
		return Transition{}, fmt.Errorf("%w: hotel %s is %s, want %s", ErrInvalidState, h.ID, h.Status, from)
	}
	return transition(h, HotelPatch{Status: &to}), nil
}

func requireReview(h Hotel) error {
	if h.Status != StatusUnderReview || h.PendingAction == nil || h.OriginalStatus == nil {
		return fmt.Errorf("%w: hotel %s has no pending review", ErrInvalidState, h.ID)
	}
	return nil
}

func clearReview() HotelPatch {
	return HotelPatch{
		OriginalStatus: SetNull[Status](),
		PendingAction:  SetNull[PendingAction](),
		PendingData:    SetNull[HotelFields](),
	}
}

// ValidateFields checks the values present in p; absent fields are not checked.
func ValidateFields(p FieldsPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name must not be blank", ErrValidation)
	}
	if p.StarLevel != nil && (*p.StarLevel < 1 || *p.StarLevel > 5) {
		return fmt.Errorf("%w: starLevel must be between 1 and 5", ErrValidation)
	}
	if p.MinPrice != nil && *p.MinPrice < 0 {
		return fmt.Errorf("%w: minPrice must not be negative", ErrValidation)
	}
	return nil
}

// CheckInvariants reports the first broken workflow invariant, if any.
func CheckInvariants(h Hotel) error {
	under := h.Status == StatusUnderReview
	switch {
	case !h.Status.Valid():
		return fmt.Errorf("unknown status %q", h.Status)
	case h.PendingAction != nil && !h.PendingAction.Valid():
		return fmt.Errorf("unknown pending action %q", *h.PendingAction)
	case (h.PendingAction != nil) != under:
		return fmt.Errorf("pendingAction set=%t with status %s", h.PendingAction != nil, h.Status)
	case (h.OriginalStatus != nil) != under:
		return fmt.Errorf("originalStatus set=%t with status %s", h.OriginalStatus != nil, h.Status)
	case h.OriginalStatus != nil && *h.OriginalStatus == StatusUnderReview:
		return fmt.Errorf("originalStatus is under_review")
	case h.PendingData != nil && (h.PendingAction == nil || *h.PendingAction != ActionUpdate):
		return fmt.Errorf("pendingData without update action")
	case h.RejectReason != nil && h.PendingAction != nil:
		return fmt.Errorf("rejectReason alongside pending %s", *h.PendingAction)
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
