// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_review/internal/app"
	"hotel_review/internal/domain"
)

type Handlers struct {
	Cmd       *app.ReviewService
	Q         *app.QueryService
	JWTSecret string
	Limiter   *ActorLimiter // nil disables rate limiting
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	auth := Authenticate(h.JWTSecret)

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/hotels/{id}", h.getPublicHotel)

	s.mux.Route("/v1/merchant/hotels", func(r chi.Router) {
		r.Use(auth, RequireRole(domain.RoleMerchant))
		r.Get("/", h.listHotels)
		r.Get("/{id}", h.getHotel)
		r.Group(func(r chi.Router) {
			r.Use(h.Limiter.Middleware)
			r.Post("/", h.createHotel)
			r.Put("/{id}", h.submitUpdate)
			r.Post("/{id}/publish", h.submitPublish)
			r.Post("/{id}/offline", h.submitOffline)
			r.Post("/{id}/pause", h.pause)
			r.Post("/{id}/resume", h.resume)
			r.Delete("/{id}", h.deleteHotel)
		})
	})

	s.mux.Route("/v1/admin/hotels", func(r chi.Router) {
		r.Use(auth, RequireRole(domain.RoleAdmin))
		r.Get("/", h.listHotels)
		r.Get("/{id}", h.getHotel)
		r.Post("/{id}/review", h.review)
		r.Delete("/{id}", h.deleteHotel)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps workflow failures onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeProblem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", "hotel was modified concurrently; reload and retry")
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func actor(r *http.Request) domain.Actor {
	a, _ := ActorFrom(r.Context())
	return a
}

func (h *Handlers) getPublicHotel(w http.ResponseWriter, r *http.Request) {
	ph, err := h.Q.GetPublicHotel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(publicHotelResponse{ID: ph.ID, fieldsDTO: toFieldsDTO(ph.HotelFields)})
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getPublicHotel body")
	}
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Q.GetHotel(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelResponse(hotel))
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	var q domain.HotelsQuery
	qs := r.URL.Query()
	if s := qs.Get("status"); s != "" {
		st, ok := parseClientStatus(s)
		if !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid status", "status must be one of online, pending, offline, draft, paused")
			return
		}
		q.Status = &st
	}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		if v := qs.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeProblem(w, http.StatusBadRequest, "Invalid "+name, name+" must be a non-negative integer")
				return
			}
			*dst = n
		}
	}

	page, err := h.Q.ListHotels(r.Context(), actor(r), q)
	if err != nil {
		writeError(w, err)
		return
	}
	out := listResponse{Items: make([]hotelResponse, 0, len(page.Items)), Total: page.Total}
	for _, it := range page.Items {
		out.Items = append(out.Items, toHotelResponse(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var in hotelInput
	if err := decodeBody(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be a JSON object")
		return
	}
	hotel, err := h.Cmd.Create(r.Context(), actor(r), in.patch())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHotelResponse(hotel))
}

func (h *Handlers) submitUpdate(w http.ResponseWriter, r *http.Request) {
	var in hotelInput
	if err := decodeBody(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be a JSON object")
		return
	}
	hotel, err := h.Cmd.SubmitUpdate(r.Context(), actor(r), chi.URLParam(r, "id"), in.patch())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelResponse(hotel))
}

// simple wraps the body-less merchant actions.
func (h *Handlers) simple(op func(r *http.Request, a domain.Actor, id string) (domain.Hotel, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hotel, err := op(r, actor(r), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toHotelResponse(hotel))
	}
}

func (h *Handlers) submitPublish(w http.ResponseWriter, r *http.Request) {
	h.simple(func(r *http.Request, a domain.Actor, id string) (domain.Hotel, error) {
		return h.Cmd.SubmitPublish(r.Context(), a, id)
	})(w, r)
}

func (h *Handlers) submitOffline(w http.ResponseWriter, r *http.Request) {
	h.simple(func(r *http.Request, a domain.Actor, id string) (domain.Hotel, error) {
		return h.Cmd.SubmitOffline(r.Context(), a, id)
	})(w, r)
}

func (h *Handlers) pause(w http.ResponseWriter, r *http.Request) {
	h.simple(func(r *http.Request, a domain.Actor, id string) (domain.Hotel, error) {
		return h.Cmd.Pause(r.Context(), a, id)
	})(w, r)
}

func (h *Handlers) resume(w http.ResponseWriter, r *http.Request) {
	h.simple(func(r *http.Request, a domain.Actor, id string) (domain.Hotel, error) {
		return h.Cmd.Resume(r.Context(), a, id)
	})(w, r)
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	if err := h.Cmd.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// review handles the admin decision: {"status":"approved"} or
// {"status":"rejected","reason":"..."}.
func (h *Handlers) review(w http.ResponseWriter, r *http.Request) {
	var in reviewInput
	if err := decodeBody(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be a JSON object")
		return
	}
	id := chi.URLParam(r, "id")

	var (
		hotel domain.Hotel
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(in.Status)) {
	case "approved":
		hotel, err = h.Cmd.Approve(r.Context(), actor(r), id)
	case "rejected":
		hotel, err = h.Cmd.Reject(r.Context(), actor(r), id, in.Reason)
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid status", `status must be "approved" or "rejected"`)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelResponse(hotel))
}
