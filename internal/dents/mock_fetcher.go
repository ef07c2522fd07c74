package dents

import (
	"context"
	"sync"

	"github.com/hivehq/hive-bff/internal/models"
)

// MockFetcher is an in-memory Fetcher for tests. Responses are programmed
// per entity kind; unprogrammed calls return the empty aggregate with the
// programmed error (nil by default), mirroring the real client's
// never-nil-response contract.
type MockFetcher struct {
	mu sync.Mutex

	ContactResponse *models.DentsResponse
	TileResponse    *models.DentsResponse
	UserResponse    *models.DentsResponse
	Err             error

	// Calls records each invocation as "contact:<id>", "tile:<id>", or
	// "user:<id>" in order. Opts records the matching Options.
	Calls []string
	Opts  []Options
}

// NewMockFetcher creates an empty MockFetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

// ContactDents returns the programmed contact response.
func (m *MockFetcher) ContactDents(_ context.Context, contactID string, opts Options) (*models.DentsResponse, error) {
	return m.respond("contact:"+contactID, opts, m.ContactResponse, models.EntityContact, contactID)
}

// TileDents returns the programmed tile response.
func (m *MockFetcher) TileDents(_ context.Context, tileID string, opts Options) (*models.DentsResponse, error) {
	return m.respond("tile:"+tileID, opts, m.TileResponse, models.EntityTile, tileID)
}

// UserDents returns the programmed user response.
func (m *MockFetcher) UserDents(_ context.Context, userID string, opts Options) (*models.DentsResponse, error) {
	return m.respond("user:"+userID, opts, m.UserResponse, models.EntityUser, userID)
}

func (m *MockFetcher) respond(call string, opts Options, resp *models.DentsResponse, entityType models.EntityType, id string) (*models.DentsResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	m.Opts = append(m.Opts, opts)
	err := m.Err
	m.mu.Unlock()

	if resp == nil {
		return models.NewEmptyResponse(entityType, id), err
	}
	return resp, err
}

// CallLog returns a copy of the recorded calls.
func (m *MockFetcher) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Calls))
	copy(out, m.Calls)
	return out
}

// OptsLog returns a copy of the recorded per-call Options.
func (m *MockFetcher) OptsLog() []Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Options, len(m.Opts))
	copy(out, m.Opts)
	return out
}
