package dents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hivehq/hive-bff/internal/auth"
	"github.com/hivehq/hive-bff/internal/mapper"
	"github.com/hivehq/hive-bff/internal/metrics"
	"github.com/hivehq/hive-bff/internal/models"
)

const defaultTimeout = 15 * time.Second

// Client implements Fetcher against the upstream Hive API over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	creds   auth.CredentialProvider
	logger  *slog.Logger
}

// NewClient creates a Client for the given upstream base URL. A zero
// timeout falls back to the package default.
func NewClient(baseURL string, timeout time.Duration, creds auth.CredentialProvider, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		creds:   creds,
		logger:  logger,
	}
}

// ContactDents fetches the aggregate for a contact. The upstream has served
// this route under both plural and singular paths; a 404 on the plural path
// is retried once against the singular one.
func (c *Client) ContactDents(ctx context.Context, contactID string, opts Options) (*models.DentsResponse, error) {
	if contactID == "" {
		return models.NewEmptyResponse(models.EntityContact, contactID), ErrMissingID
	}

	resp, err := c.fetch(ctx, "/dents/contacts/"+url.PathEscape(contactID), models.EntityContact, contactID, opts)
	if err != nil && errors404(err) {
		c.logger.Debug("contact dents plural route missing, retrying singular", "contactId", contactID)
		resp, err = c.fetch(ctx, "/dents/contact/"+url.PathEscape(contactID), models.EntityContact, contactID, opts)
	}
	if err != nil {
		return c.fallback(models.EntityContact, contactID, err)
	}
	return resp, nil
}

// TileDents fetches the aggregate for a tile/space.
func (c *Client) TileDents(ctx context.Context, tileID string, opts Options) (*models.DentsResponse, error) {
	if tileID == "" {
		return models.NewEmptyResponse(models.EntityTile, tileID), ErrMissingID
	}

	resp, err := c.fetch(ctx, "/dents/tiles/"+url.PathEscape(tileID), models.EntityTile, tileID, opts)
	if err != nil {
		return c.fallback(models.EntityTile, tileID, err)
	}
	return resp, nil
}

// UserDents fetches the aggregate for a hive member.
func (c *Client) UserDents(ctx context.Context, userID string, opts Options) (*models.DentsResponse, error) {
	if userID == "" {
		return models.NewEmptyResponse(models.EntityUser, userID), ErrMissingID
	}

	resp, err := c.fetch(ctx, "/dents/users/"+url.PathEscape(userID), models.EntityUser, userID, opts)
	if err != nil {
		// Same output shape as the other fallbacks, built inline.
		metrics.Inc(metrics.DentsFallbackTotal)
		c.logger.Warn("user dents fetch degraded to empty aggregate", "userId", userID, "error", err)
		empty := models.NewEmptyResponse(models.EntityUser, userID)
		return empty, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return resp, nil
}

// fallback logs the cause and returns the empty aggregate with a wrapped
// error. It never attempts to recompose the aggregate from per-type
// endpoints; a degraded fetch is always empty.
func (c *Client) fallback(entityType models.EntityType, entityID string, cause error) (*models.DentsResponse, error) {
	metrics.Inc(metrics.DentsFallbackTotal)
	c.logger.Warn("dents fetch degraded to empty aggregate",
		"entityType", entityType, "entityId", entityID, "error", cause)
	return models.NewEmptyResponse(entityType, entityID), fmt.Errorf("%w: %w", ErrUpstream, cause)
}

// wireResponse is the upstream aggregate with collections left raw so the
// mapper can decode each kind under either field-name generation.
type wireResponse struct {
	EntityType string                `json:"entityType"`
	EntityID   string                `json:"entityId"`
	Dents      wireContent           `json:"dents"`
	Counts     map[string]int        `json:"counts"`
	Metadata   *models.DentsMetadata `json:"metadata"`
}

type wireContent struct {
	Files  json.RawMessage `json:"files"`
	Notes  json.RawMessage `json:"notes"`
	Events json.RawMessage `json:"events"`
	Tasks  json.RawMessage `json:"tasks"`
}

// statusError reports a non-2xx upstream status.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.status, e.body)
}

func errors404(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusNotFound
}

// StatusCode extracts the upstream HTTP status from a fetch error, if the
// failure was a received non-2xx response rather than a transport problem.
func StatusCode(err error) (int, bool) {
	var se *statusError
	if errors.As(err, &se) {
		return se.status, true
	}
	return 0, false
}

func (c *Client) fetch(ctx context.Context, path string, entityType models.EntityType, entityID string, opts Options) (*models.DentsResponse, error) {
	metrics.Inc(metrics.DentsFetchTotal)

	q := url.Values{}
	q.Set("accountId", opts.AccountID)
	q.Set("userId", opts.UserID)
	q.Set("includeDeleted", strconv.FormatBool(opts.IncludeDeleted))
	if len(opts.ContentTypes) > 0 {
		kinds := make([]string, len(opts.ContentTypes))
		for i, k := range opts.ContentTypes {
			kinds[i] = string(k)
		}
		q.Set("contentTypes", strings.Join(kinds, ","))
	}

	reqURL := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// A missing token still sends the request; the upstream's 401 is
	// handled like any other failure.
	token, err := c.creds.GetToken()
	if err != nil {
		return nil, fmt.Errorf("resolving credentials: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("fetching dents aggregate",
		"entityType", entityType, "entityId", entityID,
		"accountId", opts.AccountID, "includeDeleted", opts.IncludeDeleted)

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling upstream: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, &statusError{status: httpResp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	var wire wireResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding aggregate: %w", err)
	}

	resp := &models.DentsResponse{
		EntityType: entityType,
		EntityID:   entityID,
		Dents: models.DentsContent{
			Files:  mapper.DecodeFiles(wire.Dents.Files),
			Notes:  mapper.DecodeNotes(wire.Dents.Notes),
			Events: mapper.DecodeEvents(wire.Dents.Events),
			Tasks:  mapper.DecodeTasks(wire.Dents.Tasks),
		},
		Counts:   make(map[models.ContentKind]int, len(wire.Counts)),
		Metadata: wire.Metadata,
	}
	for k, n := range wire.Counts {
		resp.Counts[models.ContentKind(k)] = n
	}
	resp.NormalizeCounts()

	c.logger.Debug("fetched dents aggregate",
		"entityType", entityType, "entityId", entityID,
		"files", resp.Count(models.KindFiles), "notes", resp.Count(models.KindNotes),
		"events", resp.Count(models.KindEvents), "tasks", resp.Count(models.KindTasks))

	return resp, nil
}
