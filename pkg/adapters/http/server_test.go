package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tgdialogs/pkg/domain"
)

type recorder struct {
	updates []*domain.Update
	err     error
}

func (r *recorder) HandleUpdate(_ context.Context, u *domain.Update) error {
	r.updates = append(r.updates, u)
	return r.err
}

const updateJSON = `{"update_id":11,"message":{"message_id":1,"from":{"id":7},"chat":{"id":42,"type":"private"},"text":"/start"}}`

func post(h http.Handler, path, body, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestWebhook_DecodesUpdate(t *testing.T) {
	rec := &recorder{}
	h := NewHandler(rec)

	rr := post(h, DefaultPath, updateJSON, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, rec.updates, 1)
	u := rec.updates[0]
	assert.Equal(t, int64(11), u.UpdateID)
	assert.Equal(t, int64(42), u.Chat().ID)
	assert.Equal(t, int64(7), u.Sender().ID)
	assert.Equal(t, "/start", u.Text())
}

func TestWebhook_HandlerErrorIsAcknowledged(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	h := NewHandler(rec)

	rr := post(h, DefaultPath, updateJSON, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, rec.updates, 1)
}

func TestWebhook_BadBody(t *testing.T) {
	rec := &recorder{}
	h := NewHandler(rec)

	rr := post(h, DefaultPath, "{not json", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, rec.updates)
}

func TestWebhook_Secret(t *testing.T) {
	rec := &recorder{}
	h := NewHandler(rec, WithSecret("s3cret"), WithPath("hook"))

	assert.Equal(t, http.StatusUnauthorized, post(h, "/hook", updateJSON, "").Code)
	assert.Equal(t, http.StatusUnauthorized, post(h, "/hook", updateJSON, "wrong").Code)
	assert.Empty(t, rec.updates)

	assert.Equal(t, http.StatusOK, post(h, "/hook", updateJSON, "s3cret").Code)
	assert.Len(t, rec.updates, 1)

	// The default path is no longer routed.
	assert.Equal(t, http.StatusNotFound, post(h, DefaultPath, updateJSON, "s3cret").Code)
}

func TestGetHealth(t *testing.T) {
	h := NewHandler(&recorder{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	h := NewHandler(&recorder{}, WithPath("/bot"))

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "tgdialogs", resp["app"])
	assert.NotEmpty(t, resp["version"])
	assert.Equal(t, "/bot", resp["webhook"])
}

func TestMetricsMount(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metric 1\n"))
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	NewHandler(&recorder{}, WithMetrics(metrics)).ServeHTTP(rr, req)
	assert.Equal(t, "metric 1\n", rr.Body.String())

	rr = httptest.NewRecorder()
	NewHandler(&recorder{}).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
