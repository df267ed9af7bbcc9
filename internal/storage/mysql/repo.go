package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"hotel_review/internal/domain"
)

func valStr[T ~string](p *T) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func valJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// jsonList never writes JSON null for a missing list.
func jsonList(xs []string) string {
	if xs == nil {
		return "[]"
	}
	b, _ := json.Marshal(xs)
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) error {
	if h.Version == 0 {
		h.Version = 1
	}
	_, err := r.db.ExecContext(ctx, insertHotelSQL,
		h.ID,
		h.OwnerID,
		h.Name,
		h.NameEn,
		h.Address,
		h.StarLevel,
		h.MinPrice,
		jsonList(h.Images),
		jsonList(h.Facilities),
		h.Description,
		h.OpenDate,
		h.CoverImage,
		string(h.Status),
		h.Version,
		h.CreatedAt,
		h.UpdatedAt,
	)
	return err
}

// SaveHotel writes only the columns present in p, in one transaction with
// the read-back, and only if the row is still at expectedVersion.
func (r *Repo) SaveHotel(ctx context.Context, id string, expectedVersion int64, p domain.HotelPatch) (domain.Hotel, error) {
	set, args, err := buildSet(p)
	if err != nil {
		return domain.Hotel{}, err
	}
	set = append(set, "version = version + 1", "updated_at = CURRENT_TIMESTAMP(6)")
	args = append(args, id, expectedVersion)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Hotel{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, updateHotelPrefix+strings.Join(set, ", ")+updateHotelWhere, args...)
	if err != nil {
		return domain.Hotel{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Hotel{}, err
	}
	if n == 0 {
		var one int
		switch err := tx.QueryRowContext(ctx, existsHotelSQL, id).Scan(&one); {
		case errors.Is(err, sql.ErrNoRows):
			return domain.Hotel{}, fmt.Errorf("%w: hotel %s", domain.ErrNotFound, id)
		case err != nil:
			return domain.Hotel{}, err
		}
		return domain.Hotel{}, fmt.Errorf("%w: hotel %s changed since version %d", domain.ErrConflict, id, expectedVersion)
	}

	h, err := scanHotel(tx.QueryRowContext(ctx, getHotelSQL, id))
	if err != nil {
		return domain.Hotel{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Hotel{}, fmt.Errorf("commit: %w", err)
	}
	return h, nil
}

// buildSet maps each present patch field to its column. The column set is
// fixed here, never derived from caller input.
func buildSet(p domain.HotelPatch) ([]string, []any, error) {
	var set []string
	var args []any
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}

	f := p.Fields
	if f.Name != nil {
		add("name", *f.Name)
	}
	if f.NameEn != nil {
		add("name_en", *f.NameEn)
	}
	if f.Address != nil {
		add("address", *f.Address)
	}
	if f.StarLevel != nil {
		add("star_level", *f.StarLevel)
	}
	if f.MinPrice != nil {
		add("min_price", *f.MinPrice)
	}
	if f.Images != nil {
		add("images", jsonList(*f.Images))
	}
	if f.Facilities != nil {
		add("facilities", jsonList(*f.Facilities))
	}
	if f.Description != nil {
		add("description", *f.Description)
	}
	if f.OpenDate != nil {
		add("open_date", *f.OpenDate)
	}
	if f.CoverImage != nil {
		add("cover_image", *f.CoverImage)
	}

	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.OriginalStatus.Set {
		add("original_status", valStr(p.OriginalStatus.Value))
	}
	if p.PendingAction.Set {
		add("pending_action", valStr(p.PendingAction.Value))
	}
	if p.PendingData.Set {
		if p.PendingData.Value == nil {
			add("pending_data", nil)
		} else {
			v, err := valJSON(p.PendingData.Value)
			if err != nil {
				return nil, nil, fmt.Errorf("encode pending_data: %w", err)
			}
			add("pending_data", v)
		}
	}
	if p.RejectReason.Set {
		add("reject_reason", valStr(p.RejectReason.Value))
	}
	return set, args, nil
}

func (r *Repo) DeleteHotel(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteHotelSQL, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: hotel %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *Repo) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, fmt.Errorf("%w: hotel %s", domain.ErrNotFound, id)
	}
	return h, err
}

func (r *Repo) ListHotels(ctx context.Context, q domain.HotelsQuery) (domain.HotelsPage, error) {
	var where strings.Builder
	var args []any
	if q.OwnerID != nil {
		where.WriteString(" AND owner_id = ?")
		args = append(args, *q.OwnerID)
	}
	if q.Status != nil {
		where.WriteString(" AND status = ?")
		args = append(args, string(*q.Status))
	}

	var page domain.HotelsPage
	if err := r.db.QueryRowContext(ctx, countHotelsPrefix+where.String(), args...).Scan(&page.Total); err != nil {
		return domain.HotelsPage{}, err
	}

	rows, err := r.db.QueryContext(ctx, listHotelsPrefix+where.String()+listHotelsSuffix, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return domain.HotelsPage{}, err
	}
	defer rows.Close()

	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return domain.HotelsPage{}, err
		}
		page.Items = append(page.Items, h)
	}
	if err := rows.Err(); err != nil {
		return domain.HotelsPage{}, err
	}
	return page, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHotel(row scanner) (domain.Hotel, error) {
	var h domain.Hotel
	var (
		imagesJSON, facilitiesJSON []byte
		status                     string
		originalStatus             sql.NullString
		pendingAction              sql.NullString
		pendingData                []byte
		rejectReason               sql.NullString
	)
	if err := row.Scan(
		&h.ID, &h.OwnerID,
		&h.Name, &h.NameEn, &h.Address, &h.StarLevel, &h.MinPrice, &imagesJSON, &facilitiesJSON,
		&h.Description, &h.OpenDate, &h.CoverImage,
		&status, &originalStatus, &pendingAction, &pendingData, &rejectReason,
		&h.Version, &h.CreatedAt, &h.UpdatedAt,
	); err != nil {
		return domain.Hotel{}, err
	}

	h.Status = domain.Status(status)
	if !h.Status.Valid() {
		return domain.Hotel{}, fmt.Errorf("hotel %s: unknown status %q", h.ID, status)
	}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &h.Images); err != nil {
			return domain.Hotel{}, fmt.Errorf("decode images of %s: %w", h.ID, err)
		}
	}
	if len(facilitiesJSON) > 0 {
		if err := json.Unmarshal(facilitiesJSON, &h.Facilities); err != nil {
			return domain.Hotel{}, fmt.Errorf("decode facilities of %s: %w", h.ID, err)
		}
	}
	if originalStatus.Valid {
		s := domain.Status(originalStatus.String)
		if !s.Valid() {
			return domain.Hotel{}, fmt.Errorf("hotel %s: unknown original_status %q", h.ID, originalStatus.String)
		}
		h.OriginalStatus = &s
	}
	if pendingAction.Valid {
		a := domain.PendingAction(pendingAction.String)
		if !a.Valid() {
			return domain.Hotel{}, fmt.Errorf("hotel %s: unknown pending_action %q", h.ID, pendingAction.String)
		}
		h.PendingAction = &a
	}
	if len(pendingData) > 0 && string(pendingData) != "null" {
		var d domain.HotelFields
		if err := json.Unmarshal(pendingData, &d); err != nil {
			return domain.Hotel{}, fmt.Errorf("decode pending_data of %s: %w", h.ID, err)
		}
		h.PendingData = &d
	}
	if rejectReason.Valid {
		s := rejectReason.String
		h.RejectReason = &s
	}
	return h, nil
}
