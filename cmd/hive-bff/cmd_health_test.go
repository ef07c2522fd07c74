package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivehq/hive-bff/internal/auth"
	"github.com/hivehq/hive-bff/internal/dents"
)

// probeErr runs one tile fetch against an upstream answering with status
// and returns the fetch error.
func probeErr(t *testing.T, status int) error {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(status), status)
	}))
	defer ts.Close()

	c := dents.NewClient(ts.URL, time.Second, auth.StaticProvider{}, newLogger())
	_, err := c.TileDents(context.Background(), "health-probe", dents.Options{AccountID: "a", UserID: "u"})
	require.Error(t, err)
	return err
}

func TestProbeHealthy(t *testing.T) {
	assert.True(t, probeHealthy(nil))

	// The sentinel id not existing is still a served route.
	assert.True(t, probeHealthy(probeErr(t, http.StatusNotFound)))
	assert.True(t, probeHealthy(probeErr(t, http.StatusUnauthorized)))

	// Server errors fail the probe.
	assert.False(t, probeHealthy(probeErr(t, http.StatusInternalServerError)))
	assert.False(t, probeHealthy(probeErr(t, http.StatusServiceUnavailable)))
}

func TestProbeHealthyTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close() // connection refused from here on

	c := dents.NewClient(ts.URL, time.Second, auth.StaticProvider{}, newLogger())
	_, err := c.TileDents(context.Background(), "health-probe", dents.Options{AccountID: "a", UserID: "u"})
	require.Error(t, err)

	assert.False(t, probeHealthy(err))
}
