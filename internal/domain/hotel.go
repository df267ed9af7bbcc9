package domain

import "time"

type Status string

const (
	StatusDraft       Status = "draft"
	StatusUnderReview Status = "under_review"
	StatusPublished   Status = "published"
	StatusOffline     Status = "offline"
	StatusPaused      Status = "paused"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusUnderReview, StatusPublished, StatusOffline, StatusPaused:
		return true
	}
	return false
}

type PendingAction string

const (
	ActionPublish PendingAction = "publish"
	ActionOffline PendingAction = "offline"
	ActionUpdate  PendingAction = "update"
)

func (a PendingAction) Valid() bool {
	return a == ActionPublish || a == ActionOffline || a == ActionUpdate
}

// HotelFields are the live, consumer-visible values of a hotel.
// PendingData holds a full copy of them while an edit awaits review.
type HotelFields struct {
	Name        string   `json:"name"`
	NameEn      string   `json:"nameEn"`
	Address     string   `json:"address"`
	StarLevel   int      `json:"starLevel"`
	MinPrice    float64  `json:"minPrice"`
	Images      []string `json:"images"`
	Facilities  []string `json:"facilities"`
	Description string   `json:"description"`
	OpenDate    string   `json:"openDate"`
	CoverImage  string   `json:"coverImage"`
}

type Hotel struct {
	ID      string
	OwnerID string
	HotelFields

	Status         Status
	OriginalStatus *Status
	PendingAction  *PendingAction
	PendingData    *HotelFields
	RejectReason   *string

	Version   int64 // bumped by the store on every save
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Visible reports whether consumers may see the hotel's live fields.
// An edit under review keeps the old content online.
func (h Hotel) Visible() bool {
	if h.Status == StatusPublished {
		return true
	}
	return h.Status == StatusUnderReview && h.OriginalStatus != nil && *h.OriginalStatus == StatusPublished
}

// Clone deep-copies slices and pointers so callers can mutate freely.
func (h Hotel) Clone() Hotel {
	out := h
	out.HotelFields = h.HotelFields.clone()
	if h.OriginalStatus != nil {
		s := *h.OriginalStatus
		out.OriginalStatus = &s
	}
	if h.PendingAction != nil {
		a := *h.PendingAction
		out.PendingAction = &a
	}
	if h.PendingData != nil {
		d := h.PendingData.clone()
		out.PendingData = &d
	}
	if h.RejectReason != nil {
		r := *h.RejectReason
		out.RejectReason = &r
	}
	return out
}

func (f HotelFields) clone() HotelFields {
	out := f
	if f.Images != nil {
		out.Images = append([]string(nil), f.Images...)
	}
	if f.Facilities != nil {
		out.Facilities = append([]string(nil), f.Facilities...)
	}
	return out
}

// Actors & queries

type Role string

const (
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) Owns(h Hotel) bool { return a.Role == RoleMerchant && a.ID != "" && a.ID == h.OwnerID }

type HotelsQuery struct {
	OwnerID *string
	Status  *Status
	Limit   int
	Offset  int
}

type HotelsPage struct {
	Items []Hotel
	Total int
}
