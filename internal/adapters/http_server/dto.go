package httpserver

import (
	"strings"
	"time"

	"hotel_review/internal/domain"
)

// Client-facing status vocabulary. Internal names never leave this package.
var clientStatus = map[domain.Status]string{
	domain.StatusPublished:   "online",
	domain.StatusUnderReview: "pending",
	domain.StatusOffline:     "offline",
	domain.StatusDraft:       "draft",
	domain.StatusPaused:      "paused",
}

func toClientStatus(s domain.Status) string {
	if v, ok := clientStatus[s]; ok {
		return v
	}
	return string(s)
}

// parseClientStatus accepts the client vocabulary and, for convenience,
// the internal names.
func parseClientStatus(s string) (domain.Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for internal, client := range clientStatus {
		if s == client || s == string(internal) {
			return internal, true
		}
	}
	return "", false
}

// hotelInput is the merchant create/edit payload. Every field is optional;
// absent fields keep their current value.
type hotelInput struct {
	NameCn       *string   `json:"nameCn"`
	NameEn       *string   `json:"nameEn"`
	Address      *string   `json:"address"`
	Star         *int      `json:"star"`
	MinPrice     *float64  `json:"minPrice"`
	OpenDate     *string   `json:"openDate"`
	Facilities   *[]string `json:"facilities"`
	DiscountInfo *string   `json:"discountInfo"`
	Description  *string   `json:"description"`
	Images       *[]string `json:"images"`
	CoverImage   *string   `json:"coverImage"`
}

func (in hotelInput) patch() domain.FieldsPatch {
	desc := in.Description
	if desc == nil {
		desc = in.DiscountInfo
	}
	return domain.FieldsPatch{
		Name:        in.NameCn,
		NameEn:      in.NameEn,
		Address:     in.Address,
		StarLevel:   in.Star,
		MinPrice:    in.MinPrice,
		Images:      in.Images,
		Facilities:  in.Facilities,
		Description: desc,
		OpenDate:    in.OpenDate,
		CoverImage:  in.CoverImage,
	}
}

type reviewInput struct {
	Status string `json:"status"` // approved|rejected
	Reason string `json:"reason"`
}

type fieldsDTO struct {
	NameCn      string   `json:"nameCn"`
	NameEn      string   `json:"nameEn"`
	Address     string   `json:"address"`
	Star        int      `json:"star"`
	MinPrice    float64  `json:"minPrice"`
	OpenDate    string   `json:"openDate"`
	Facilities  []string `json:"facilities"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	CoverImage  string   `json:"coverImage"`
}

func toFieldsDTO(f domain.HotelFields) fieldsDTO {
	nonNil := func(xs []string) []string {
		if xs == nil {
			return []string{}
		}
		return xs
	}
	return fieldsDTO{
		NameCn:      f.Name,
		NameEn:      f.NameEn,
		Address:     f.Address,
		Star:        f.StarLevel,
		MinPrice:    f.MinPrice,
		OpenDate:    f.OpenDate,
		Facilities:  nonNil(f.Facilities),
		Description: f.Description,
		Images:      nonNil(f.Images),
		CoverImage:  f.CoverImage,
	}
}

type hotelResponse struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	fieldsDTO
	Status         string     `json:"status"`
	OriginalStatus *string    `json:"originalStatus"`
	PendingAction  *string    `json:"pendingAction"`
	PendingData    *fieldsDTO `json:"pendingData"`
	RejectReason   *string    `json:"rejectReason"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func toHotelResponse(h domain.Hotel) hotelResponse {
	out := hotelResponse{
		ID:           h.ID,
		OwnerID:      h.OwnerID,
		fieldsDTO:    toFieldsDTO(h.HotelFields),
		Status:       toClientStatus(h.Status),
		RejectReason: h.RejectReason,
		Version:      h.Version,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}
	if h.OriginalStatus != nil {
		s := toClientStatus(*h.OriginalStatus)
		out.OriginalStatus = &s
	}
	if h.PendingAction != nil {
		a := string(*h.PendingAction)
		out.PendingAction = &a
	}
	if h.PendingData != nil {
		d := toFieldsDTO(*h.PendingData)
		out.PendingData = &d
	}
	return out
}

type publicHotelResponse struct {
	ID string `json:"id"`
	fieldsDTO
}

type listResponse struct {
	Items []hotelResponse `json:"items"`
	Total int             `json:"total"`
}
