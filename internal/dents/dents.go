// Package dents fetches the unified content aggregate (documents, events,
// notes, tasks) for one entity from the upstream Hive API.
//
// Every fetch degrades rather than fails: on any transport, status, or
// decode problem the fetcher returns a well-shaped empty aggregate together
// with the error that caused it. Callers render the empty aggregate and may
// log or count the error; they never receive a nil response.
package dents

import (
	"context"
	"errors"

	"github.com/hivehq/hive-bff/internal/models"
)

// ErrMissingID is returned (alongside the empty aggregate) when the entity
// id is empty.
var ErrMissingID = errors.New("entity id is required")

// ErrUpstream wraps any upstream failure that triggered the fallback.
var ErrUpstream = errors.New("dents upstream unavailable")

// Options carries the authorization identity and content filters for a
// fetch. AccountID and UserID are required by the upstream; ContentTypes
// empty means all four kinds; IncludeDeleted defaults to false.
type Options struct {
	AccountID      string
	UserID         string
	ContentTypes   []models.ContentKind
	IncludeDeleted bool
}

// Fetcher retrieves content aggregates per entity kind.
type Fetcher interface {
	// ContactDents fetches the aggregate for a contact.
	ContactDents(ctx context.Context, contactID string, opts Options) (*models.DentsResponse, error)

	// TileDents fetches the aggregate for a tile/space.
	TileDents(ctx context.Context, tileID string, opts Options) (*models.DentsResponse, error)

	// UserDents fetches the aggregate for a hive member.
	UserDents(ctx context.Context, userID string, opts Options) (*models.DentsResponse, error)
}
