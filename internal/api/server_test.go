package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivehq/hive-bff/internal/auth"
	"github.com/hivehq/hive-bff/internal/dents"
	"github.com/hivehq/hive-bff/internal/models"
	"github.com/hivehq/hive-bff/internal/upload"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// nullStorage is a Storage for handler tests.
type nullStorage struct{}

func (nullStorage) Put(_ context.Context, filename string, content io.Reader) (string, string, error) {
	if _, err := io.Copy(io.Discard, content); err != nil {
		return "", "", err
	}
	return "file:///" + filename, "sp-1", nil
}

// nullRecords accepts everything, or rejects file creation when broken.
type nullRecords struct {
	broken bool
}

func (r nullRecords) CreateFile(_ context.Context, file models.File) (*models.File, error) {
	if r.broken {
		return nil, errors.New("records service down")
	}
	return &file, nil
}

func (nullRecords) CreateMemberFile(context.Context, string, string) error { return nil }
func (nullRecords) CreateTileFile(context.Context, string, string) error   { return nil }

type nullNotifier struct{}

func (nullNotifier) Success(string) {}
func (nullNotifier) Failure(string) {}

func newTestServer(fetcher dents.Fetcher, records upload.Records, authToken string) *Server {
	uploader := upload.NewUploader(nullStorage{}, records, nullNotifier{}, testLogger(), func() string { return "f1" })
	return NewServer(fetcher, uploader, nil, testLogger(), authToken, false)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(dents.NewMockFetcher(), nullRecords{}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthSkipsAuth(t *testing.T) {
	srv := newTestServer(dents.NewMockFetcher(), nullRecords{}, "secret")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(dents.NewMockFetcher(), nullRecords{}, "secret")
	handler := srv.Handler()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"not bearer", "Basic secret", http.StatusUnauthorized},
		{"valid token", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dents/tiles/t1?accountId=a1&userId=u1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDentsRouteReturnsAggregate(t *testing.T) {
	fetcher := dents.NewMockFetcher()
	resp := models.NewEmptyResponse(models.EntityTile, "t1")
	resp.Dents.Tasks = []models.Task{{ID: "task-1", Title: "Fix sink"}}
	resp.NormalizeCounts()
	fetcher.TileResponse = resp

	srv := newTestServer(fetcher, nullRecords{}, "")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/dents/tiles/t1?accountId=a1&userId=u1", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.DentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.EntityTile, got.EntityType)
	assert.Equal(t, "t1", got.EntityID)
	require.Len(t, got.Dents.Tasks, 1)
	assert.Equal(t, "Fix sink", got.Dents.Tasks[0].Title)
	assert.Equal(t, 1, got.Counts[models.KindTasks])
	assert.Equal(t, []string{"tile:t1"}, fetcher.CallLog())
}

// TestDentsRouteDegradedStillOK verifies that an upstream failure answers
// 200 with the empty aggregate rather than an error status.
func TestDentsRouteDegradedStillOK(t *testing.T) {
	fetcher := dents.NewMockFetcher()
	fetcher.Err = dents.ErrUpstream

	srv := newTestServer(fetcher, nullRecords{}, "")

	for _, path := range []string{
		"/api/dents/contacts/c1",
		"/api/dents/tiles/t1",
		"/api/dents/users/u1",
	} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			path+"?accountId=a1&userId=u1", nil))

		require.Equal(t, http.StatusOK, rec.Code, path)

		var got models.DentsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got), path)
		assert.True(t, got.ConsistentCounts(), path)
		for _, kind := range models.AllContentKinds {
			assert.Zero(t, got.Count(kind), path)
		}
	}
}

func TestDentsRouteRequiresAccountAndUser(t *testing.T) {
	srv := newTestServer(dents.NewMockFetcher(), nullRecords{}, "")
	handler := srv.Handler()

	tests := []struct {
		name  string
		query string
	}{
		{"no params", ""},
		{"missing userId", "?accountId=a1"},
		{"missing accountId", "?userId=u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dents/users/u1"+tt.query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// TestDentsRouteIncludeDeletedParsing verifies the includeDeleted query
// parameter accepts any strconv.ParseBool form, rejects garbage with 400,
// and falls back to the configured default when absent.
func TestDentsRouteIncludeDeletedParsing(t *testing.T) {
	tests := []struct {
		name           string
		param          string
		serverDefault  bool
		wantStatus     int
		wantIncludeDel bool
	}{
		{"absent uses default false", "", false, http.StatusOK, false},
		{"absent uses default true", "", true, http.StatusOK, true},
		{"explicit true", "true", false, http.StatusOK, true},
		{"explicit True", "True", false, http.StatusOK, true},
		{"explicit 1", "1", false, http.StatusOK, true},
		{"explicit false overrides default", "false", true, http.StatusOK, false},
		{"garbage rejected", "yes please", false, http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := dents.NewMockFetcher()
			uploader := upload.NewUploader(nullStorage{}, nullRecords{}, nullNotifier{}, testLogger(), func() string { return "f1" })
			srv := NewServer(fetcher, uploader, nil, testLogger(), "", tt.serverDefault)

			target := "/api/dents/tiles/t1?accountId=a1&userId=u1"
			if tt.param != "" {
				target += "&includeDeleted=" + url.QueryEscape(tt.param)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Empty(t, fetcher.CallLog())
				return
			}
			opts := fetcher.OptsLog()
			require.Len(t, opts, 1)
			assert.Equal(t, tt.wantIncludeDel, opts[0].IncludeDeleted)
		})
	}
}

func TestDentsRouteRejectsUnknownContentType(t *testing.T) {
	srv := newTestServer(dents.NewMockFetcher(), nullRecords{}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/dents/tiles/t1?accountId=a1&userId=u1&contentTypes=tasks,photos", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "photos")
}

func attachBody(t *testing.T, kind string) *strings.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"targetId":   "t1",
		"targetKind": kind,
		"accountId":  "a1",
		"ownerId":    "u1",
		"filename":   "lease.pdf",
		"content":    base64.StdEncoding.EncodeToString([]byte("pdf bytes")),
	})
	require.NoError(t, err)
	return strings.NewReader(string(body))
}

func TestAttachEndpoint(t *testing.T) {
	srv := newTestServer(dents.NewMockFetcher(), nullRecords{}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/files/attach", attachBody(t, "tile")))

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.File
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "f1", got.ID)
	assert.Equal(t, "lease.pdf", got.Filename)
	assert.True(t, got.Active)
}

func TestAttachEndpointBadRequests(t *testing.T) {
	srv := newTestServer(dents.NewMockFetcher(), nullRecords{}, "")
	handler := srv.Handler()

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing fields", `{"content":"aGk="}`},
		{"bad base64", `{"targetId":"t1","targetKind":"tile","filename":"a.txt","content":"***"}`},
		{"bad target kind", `{"targetId":"t1","targetKind":"account","filename":"a.txt","content":"aGk="}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/files/attach", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// TestAttachEndpointHidesFailingStep verifies a mid-flow failure maps to a
// generic 502 without naming which step broke.
func TestAttachEndpointHidesFailingStep(t *testing.T) {
	srv := newTestServer(dents.NewMockFetcher(), nullRecords{broken: true}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/files/attach", attachBody(t, "user")))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"upload failed"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "records service")
}

// --- proxy ---

func TestProxyHeaderAllowlist(t *testing.T) {
	var gotHeaders http.Header
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Set-Cookie", "session=abc")
		w.Header().Set("X-Internal-Debug", "trace-7")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	proxy := NewProxy(upstream.URL, time.Second, auth.StaticProvider{Token: "svc-token"}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/tiles?accountId=a1", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", "req-9")
	req.Header.Set("Cookie", "session=abc")
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	proxy.Forward(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// Allowlisted request headers pass, the rest are dropped.
	assert.Equal(t, "application/json", gotHeaders.Get("Accept"))
	assert.Equal(t, "req-9", gotHeaders.Get("X-Request-Id"))
	assert.Empty(t, gotHeaders.Get("Cookie"))
	assert.Empty(t, gotHeaders.Get("X-Forwarded-For"))

	// No client Authorization means the service credential is attached.
	assert.Equal(t, "Bearer svc-token", gotHeaders.Get("Authorization"))

	// Allowlisted response headers pass, the rest are dropped.
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
	assert.Empty(t, rec.Header().Get("X-Internal-Debug"))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestProxyClientAuthorizationWins(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	proxy := NewProxy(upstream.URL, time.Second, auth.StaticProvider{Token: "svc-token"}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	proxy.Forward(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Bearer user-token", gotAuth)
}

func TestProxyPreservesMethodPathAndStatus(t *testing.T) {
	var gotMethod, gotPath, gotQuery, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer upstream.Close()

	proxy := NewProxy(upstream.URL, time.Second, auth.StaticProvider{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/notes?accountId=a1", strings.NewReader(`{"title":"hi"}`))
	rec := httptest.NewRecorder()
	proxy.Forward(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/notes", gotPath)
	assert.Equal(t, "accountId=a1", gotQuery)
	assert.JSONEq(t, `{"title":"hi"}`, gotBody)
}

func TestProxyUpstreamUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	upstream.Close()

	proxy := NewProxy(upstream.URL, time.Second, auth.StaticProvider{}, testLogger())

	rec := httptest.NewRecorder()
	proxy.Forward(rec, httptest.NewRequest(http.MethodGet, "/api/tiles", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
