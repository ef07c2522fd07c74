package api

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hivehq/hive-bff/internal/dents"
	"github.com/hivehq/hive-bff/internal/models"
	"github.com/hivehq/hive-bff/internal/upload"
)

// Server is the BFF HTTP server: it serves the dents aggregation routes,
// the document-attach route, and forwards the rest of the /api surface to
// the upstream.
type Server struct {
	fetcher        dents.Fetcher
	uploader       *upload.Uploader
	proxy          *Proxy
	logger         *slog.Logger
	authToken      string // empty = no auth required
	includeDeleted bool   // default when the query param is absent
}

// NewServer creates a new Server with the given dependencies. proxy may be
// nil, in which case unknown /api routes return 404. includeDeleted is the
// configured default applied when a dents request omits the includeDeleted
// query parameter.
func NewServer(fetcher dents.Fetcher, uploader *upload.Uploader, proxy *Proxy, logger *slog.Logger, authToken string, includeDeleted bool) *Server {
	return &Server{
		fetcher:        fetcher,
		uploader:       uploader,
		proxy:          proxy,
		logger:         logger,
		authToken:      authToken,
		includeDeleted: includeDeleted,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check — no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Aggregation endpoints — wrapped with auth middleware.
	mux.HandleFunc("GET /api/dents/contacts/{id}", s.auth(s.handleDents(models.EntityContact)))
	mux.HandleFunc("GET /api/dents/tiles/{id}", s.auth(s.handleDents(models.EntityTile)))
	mux.HandleFunc("GET /api/dents/users/{id}", s.auth(s.handleDents(models.EntityUser)))

	// Document attach.
	mux.HandleFunc("POST /api/files/attach", s.auth(s.handleAttach))

	// Everything else under /api is forwarded upstream.
	if s.proxy != nil {
		mux.HandleFunc("/api/", s.auth(s.proxy.Forward))
	}

	return mux
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDents serves one entity kind's aggregation route. A degraded fetch
// still answers 200 with the empty aggregate: the client renders empty
// sections rather than an error page.
func (s *Server) handleDents(entityType models.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			s.writeError(w, http.StatusBadRequest, "id is required")
			return
		}

		q := r.URL.Query()
		opts := dents.Options{
			AccountID:      q.Get("accountId"),
			UserID:         q.Get("userId"),
			IncludeDeleted: s.includeDeleted,
		}
		if opts.AccountID == "" || opts.UserID == "" {
			s.writeError(w, http.StatusBadRequest, "accountId and userId are required")
			return
		}
		if raw := q.Get("includeDeleted"); raw != "" {
			v, parseErr := strconv.ParseBool(raw)
			if parseErr != nil {
				s.writeError(w, http.StatusBadRequest, "includeDeleted must be a boolean")
				return
			}
			opts.IncludeDeleted = v
		}
		if raw := q.Get("contentTypes"); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				kind := models.ContentKind(strings.TrimSpace(part))
				if !kind.IsValid() {
					s.writeError(w, http.StatusBadRequest, "invalid content type "+string(kind))
					return
				}
				opts.ContentTypes = append(opts.ContentTypes, kind)
			}
		}

		var (
			resp *models.DentsResponse
			err  error
		)
		switch entityType {
		case models.EntityContact:
			resp, err = s.fetcher.ContactDents(r.Context(), id, opts)
		case models.EntityTile:
			resp, err = s.fetcher.TileDents(r.Context(), id, opts)
		case models.EntityUser:
			resp, err = s.fetcher.UserDents(r.Context(), id, opts)
		}
		if err != nil {
			if errors.Is(err, dents.ErrMissingID) {
				s.writeError(w, http.StatusBadRequest, "id is required")
				return
			}
			s.logger.Warn("serving degraded dents aggregate",
				"entityType", entityType, "entityId", id, "error", err)
		}

		s.writeJSON(w, http.StatusOK, resp)
	}
}

// attachRequest is the body accepted by POST /api/files/attach.
type attachRequest struct {
	TargetID   string `json:"targetId"`
	TargetKind string `json:"targetKind"`
	AccountID  string `json:"accountId"`
	OwnerID    string `json:"ownerId"`
	Filename   string `json:"filename"`
	Content    string `json:"content"` // base64
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 32<<20) // 32 MB limit
	var req attachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.TargetID == "" || req.Filename == "" {
		s.writeError(w, http.StatusBadRequest, "targetId and filename are required")
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "content must be base64")
		return
	}

	record, err := s.uploader.Attach(r.Context(), upload.Request{
		TargetID:   req.TargetID,
		TargetKind: upload.TargetKind(req.TargetKind),
		AccountID:  req.AccountID,
		OwnerID:    req.OwnerID,
		Filename:   req.Filename,
		Content:    bytes.NewReader(content),
	})
	if err != nil {
		if errors.Is(err, upload.ErrInvalidTarget) {
			s.writeError(w, http.StatusBadRequest, "targetKind must be user or tile")
			return
		}
		// The failing step is logged, not disclosed.
		s.writeError(w, http.StatusBadGateway, "upload failed")
		return
	}

	s.writeJSON(w, http.StatusOK, record)
}

// --- helpers ---

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
