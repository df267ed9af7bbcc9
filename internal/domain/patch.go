package domain

// Nullable distinguishes "leave the column alone" (Set=false) from
// "write this value" (Set=true), where a nil Value writes NULL.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func SetTo[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

func SetNull[T any]() Nullable[T] { return Nullable[T]{Set: true} }

// FieldsPatch is a sparse set of live-field changes; nil means untouched.
type FieldsPatch struct {
	Name        *string   `json:"name,omitempty"`
	NameEn      *string   `json:"nameEn,omitempty"`
	Address     *string   `json:"address,omitempty"`
	StarLevel   *int      `json:"starLevel,omitempty"`
	MinPrice    *float64  `json:"minPrice,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	Facilities  *[]string `json:"facilities,omitempty"`
	Description *string   `json:"description,omitempty"`
	OpenDate    *string   `json:"openDate,omitempty"`
	CoverImage  *string   `json:"coverImage,omitempty"`
}

func (p FieldsPatch) Empty() bool {
	return p.Name == nil && p.NameEn == nil && p.Address == nil && p.StarLevel == nil &&
		p.MinPrice == nil && p.Images == nil && p.Facilities == nil && p.Description == nil &&
		p.OpenDate == nil && p.CoverImage == nil
}

// MergeOver returns cur with every present field of p replacing it.
func (p FieldsPatch) MergeOver(cur HotelFields) HotelFields {
	out := cur.clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.NameEn != nil {
		out.NameEn = *p.NameEn
	}
	if p.Address != nil {
		out.Address = *p.Address
	}
	if p.StarLevel != nil {
		out.StarLevel = *p.StarLevel
	}
	if p.MinPrice != nil {
		out.MinPrice = *p.MinPrice
	}
	if p.Images != nil {
		out.Images = append([]string(nil), (*p.Images)...)
	}
	if p.Facilities != nil {
		out.Facilities = append([]string(nil), (*p.Facilities)...)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.OpenDate != nil {
		out.OpenDate = *p.OpenDate
	}
	if p.CoverImage != nil {
		out.CoverImage = *p.CoverImage
	}
	return out
}

// FullPatch writes every live field from f.
func FullPatch(f HotelFields) FieldsPatch {
	imgs := append([]string(nil), f.Images...)
	facs := append([]string(nil), f.Facilities...)
	return FieldsPatch{
		Name:        &f.Name,
		NameEn:      &f.NameEn,
		Address:     &f.Address,
		StarLevel:   &f.StarLevel,
		MinPrice:    &f.MinPrice,
		Images:      &imgs,
		Facilities:  &facs,
		Description: &f.Description,
		OpenDate:    &f.OpenDate,
		CoverImage:  &f.CoverImage,
	}
}

// HotelPatch is the sparse update a store applies to one hotel row.
type HotelPatch struct {
	Fields         FieldsPatch
	Status         *Status
	OriginalStatus Nullable[Status]
	PendingAction  Nullable[PendingAction]
	PendingData    Nullable[HotelFields]
	RejectReason   Nullable[string]
}

// Apply returns h with p applied. Version and timestamps are the store's job.
func (h Hotel) Apply(p HotelPatch) Hotel {
	out := h.Clone()
	out.HotelFields = p.Fields.MergeOver(out.HotelFields)
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.OriginalStatus.Set {
		out.OriginalStatus = copyPtr(p.OriginalStatus.Value)
	}
	if p.PendingAction.Set {
		out.PendingAction = copyPtr(p.PendingAction.Value)
	}
	if p.PendingData.Set {
		if p.PendingData.Value == nil {
			out.PendingData = nil
		} else {
			d := p.PendingData.Value.clone()
			out.PendingData = &d
		}
	}
	if p.RejectReason.Set {
		out.RejectReason = copyPtr(p.RejectReason.Value)
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
