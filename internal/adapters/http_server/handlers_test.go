package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "hotel_review/internal/adapters/http_server"
	"hotel_review/internal/app"
	"hotel_review/internal/storage/memory"
)

const secret = "test-secret"

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newTestServer(t *testing.T, limiter *server.ActorLimiter) *httptest.Server {
	t.Helper()
	repo := memory.New()
	srv := server.New(zerolog.Nop())
	srv.MountHandlers(&server.Handlers{
		Cmd:       app.NewReviewService(repo, nil, nil),
		Q:         app.NewQueryService(repo, nil, time.Minute),
		JWTSecret: secret,
		Limiter:   limiter,
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func TestHTTP_ReviewWorkflow(t *testing.T) {
	ts := newTestServer(t, nil)
	merchant := client{t, ts.URL, token(t, "m-1", "merchant")}
	admin := client{t, ts.URL, token(t, "a-1", "admin")}
	anon := client{t, ts.URL, ""}

	code, body := merchant.do("POST", "/v1/merchant/hotels", map[string]any{
		"nameCn": "Harbour View", "address": "1 Quay St", "star": 4, "minPrice": 320, "discountInfo": "10% off",
	})
	require.Equal(t, http.StatusCreated, code, body)
	id := body["id"].(string)
	assert.Equal(t, "draft", body["status"])
	assert.Equal(t, "10% off", body["description"])

	// drafts are not public
	code, _ = anon.do("GET", "/v1/hotels/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = merchant.do("POST", "/v1/merchant/hotels/"+id+"/publish", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "publish", body["pendingAction"])
	assert.Equal(t, "draft", body["originalStatus"])

	code, body = admin.do("GET", "/v1/admin/hotels?status=pending", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	code, body = admin.do("POST", "/v1/admin/hotels/"+id+"/review", map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "online", body["status"])
	assert.Nil(t, body["pendingAction"])

	// edit while online: consumers keep seeing the approved name
	code, body = merchant.do("PUT", "/v1/merchant/hotels/"+id, map[string]any{"nameCn": "Harbour View Deluxe"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Harbour View", body["nameCn"])
	assert.Equal(t, "Harbour View Deluxe", body["pendingData"].(map[string]any)["nameCn"])

	code, body = anon.do("GET", "/v1/hotels/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Harbour View", body["nameCn"])

	// a second submission while one is pending is refused
	code, _ = merchant.do("POST", "/v1/merchant/hotels/"+id+"/offline", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = admin.do("POST", "/v1/admin/hotels/"+id+"/review", map[string]any{"status": "rejected"})
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = admin.do("POST", "/v1/admin/hotels/"+id+"/review", map[string]any{"status": "rejected", "reason": "name too long"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "name too long", body["rejectReason"])
	assert.Equal(t, "Harbour View", body["nameCn"])

	// deciding again has nothing to decide
	code, _ = admin.do("POST", "/v1/admin/hotels/"+id+"/review", map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusConflict, code)

	code, body = merchant.do("POST", "/v1/merchant/hotels/"+id+"/pause", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "paused", body["status"])
	code, _ = merchant.do("POST", "/v1/merchant/hotels/"+id+"/pause", nil)
	assert.Equal(t, http.StatusConflict, code)
	code, body = merchant.do("POST", "/v1/merchant/hotels/"+id+"/resume", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "online", body["status"])

	code, _ = merchant.do("DELETE", "/v1/merchant/hotels/"+id, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = admin.do("GET", "/v1/admin/hotels/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHTTP_AuthAndRoles(t *testing.T) {
	ts := newTestServer(t, nil)
	merchant := client{t, ts.URL, token(t, "m-1", "merchant")}
	stranger := client{t, ts.URL, token(t, "m-2", "merchant")}
	admin := client{t, ts.URL, token(t, "a-1", "admin")}

	code, _ := client{t, ts.URL, ""}.do("GET", "/v1/merchant/hotels", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = client{t, ts.URL, "garbage"}.do("GET", "/v1/merchant/hotels", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = client{t, ts.URL, token(t, "x", "guest")}.do("GET", "/v1/merchant/hotels", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = merchant.do("GET", "/v1/admin/hotels", nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = admin.do("POST", "/v1/merchant/hotels", map[string]any{"nameCn": "X"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body := merchant.do("POST", "/v1/merchant/hotels", map[string]any{"nameCn": "Mine"})
	require.Equal(t, http.StatusCreated, code)
	id := body["id"].(string)

	code, _ = stranger.do("GET", "/v1/merchant/hotels/"+id, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = stranger.do("POST", "/v1/merchant/hotels/"+id+"/publish", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = stranger.do("GET", "/v1/merchant/hotels", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["total"])
}

func TestHTTP_Validation(t *testing.T) {
	ts := newTestServer(t, nil)
	merchant := client{t, ts.URL, token(t, "m-1", "merchant")}

	code, _ := merchant.do("POST", "/v1/merchant/hotels", map[string]any{"nameCn": "X", "star": 9})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = merchant.do("POST", "/v1/merchant/hotels", map[string]any{"address": "no name"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = client{t, ts.URL, token(t, "a-1", "admin")}.do("GET", "/v1/admin/hotels?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	req, _ := http.NewRequest("POST", ts.URL+"/v1/merchant/hotels", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+merchant.token)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "application/problem+json", res.Header.Get("Content-Type"))
}

func TestHTTP_PublicETag(t *testing.T) {
	ts := newTestServer(t, nil)
	merchant := client{t, ts.URL, token(t, "m-1", "merchant")}
	admin := client{t, ts.URL, token(t, "a-1", "admin")}
	_, body := merchant.do("POST", "/v1/merchant/hotels", map[string]any{"nameCn": "Tagged"})
	id := body["id"].(string)
	merchant.do("POST", "/v1/merchant/hotels/"+id+"/publish", nil)
	admin.do("POST", "/v1/admin/hotels/"+id+"/review", map[string]any{"status": "approved"})

	res, err := http.Get(ts.URL + "/v1/hotels/" + id)
	require.NoError(t, err)
	res.Body.Close()
	etag := res.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, _ := http.NewRequest("GET", ts.URL+"/v1/hotels/"+id, nil)
	req.Header.Set("If-None-Match", etag)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotModified, res.StatusCode)
}

func TestHTTP_RateLimit(t *testing.T) {
	ts := newTestServer(t, server.NewActorLimiter(0.001, 2))
	merchant := client{t, ts.URL, token(t, "m-1", "merchant")}
	other := client{t, ts.URL, token(t, "m-2", "merchant")}

	for i := 0; i < 2; i++ {
		code, _ := merchant.do("POST", "/v1/merchant/hotels", map[string]any{"nameCn": "H"})
		require.Equal(t, http.StatusCreated, code)
	}
	code, _ := merchant.do("POST", "/v1/merchant/hotels", map[string]any{"nameCn": "H"})
	assert.Equal(t, http.StatusTooManyRequests, code)

	// buckets are per actor, reads are not limited
	code, _ = other.do("POST", "/v1/merchant/hotels", map[string]any{"nameCn": "H"})
	assert.Equal(t, http.StatusCreated, code)
	code, _ = merchant.do("GET", "/v1/merchant/hotels", nil)
	assert.Equal(t, http.StatusOK, code)
}
