package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/sun2-go/internal/config"
	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

func newTestRouter(t *testing.T) (http.Handler, *config.Store) {
	t.Helper()
	s, entries := newTestServices(t)
	s.SetReload(func() error { return nil })
	return NewRouter(s, zap.NewNop()), entries
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetLocationEndpoint(t *testing.T) {
	h, entries := newTestRouter(t)
	entries.Add(&config.Entry{Title: "Cabin", Source: config.SourceUser, Options: cabinOptions()})

	rec := post(t, h, "/api/services/get_location", `{"location":"Cabin"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.GetLocationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 59.9139, resp.Latitude)
}

func TestGetLocationEndpointUnknownTitle(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := post(t, h, "/api/services/get_location", `{"location":"Atlantis"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateLocationEndpointRejectsImport(t *testing.T) {
	h, entries := newTestRouter(t)
	entries.Add(&config.Entry{Title: "Cabin", Source: config.SourceImport, Options: cabinOptions()})

	rec := post(t, h, "/api/services/update_location", `{"location":"Cabin","latitude":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errors.CodeEntryNotEditable, body.Code)
}

func TestUpdateLocationEndpointBadBody(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := post(t, h, "/api/services/update_location", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReloadEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := post(t, h, "/api/services/reload", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
