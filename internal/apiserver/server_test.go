package apiserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trackwave/presenced/internal/presence"
	"github.com/trackwave/presenced/pkg/metrics"
)

type stubService struct {
	nowPlayingErr error
	lastRequest   presence.NowPlayingRequest
}

func (s *stubService) IsAuthorized(_ context.Context, username string) bool {
	return username == "alice"
}

func (s *stubService) NowPlaying(_ context.Context, req presence.NowPlayingRequest) error {
	s.lastRequest = req
	return s.nowPlayingErr
}

func (s *stubService) Scrobble(context.Context, presence.ScrobbleRequest) error {
	return nil
}

func newTestRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewServer(zap.NewNop(), svc, metrics.New("test")).RegisterRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthorizedEndpoint(t *testing.T) {
	router := newTestRouter(&stubService{})

	w := doRequest(router, http.MethodGet, "/api/v1/authorized/alice", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authorized":true}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/api/v1/authorized/mallory", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authorized":false}`, w.Body.String())
}

func TestNowPlayingEndpoint(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/api/v1/nowplaying", `{
		"username": "alice",
		"track": {"title": "Paranoid Android", "artist": "Radiohead", "duration": 180},
		"position": 10
	}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "alice", svc.lastRequest.Username)
	assert.Equal(t, "Paranoid Android", svc.lastRequest.Track.Title)
	assert.Equal(t, int32(10), svc.lastRequest.Position)
}

func TestNowPlayingEndpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not authorized", presence.ErrNotAuthorized, http.StatusUnauthorized},
		{"retry later", presence.ErrRetryLater, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubService{nowPlayingErr: tt.err})
			w := doRequest(router, http.MethodPost, "/api/v1/nowplaying", `{"username":"x"}`)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestNowPlayingEndpoint_BadBody(t *testing.T) {
	router := newTestRouter(&stubService{})
	w := doRequest(router, http.MethodPost, "/api/v1/nowplaying", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScrobbleEndpoint(t *testing.T) {
	router := newTestRouter(&stubService{})
	w := doRequest(router, http.MethodPost, "/api/v1/scrobble", `{"username":"alice"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&stubService{})
	w := doRequest(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
