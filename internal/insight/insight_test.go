package insight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sipstream/internal/api"
)

func newService(t *testing.T, h http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL)
	require.NoError(t, err)
	return New(client)
}

func TestCoachPrefersServerMessage(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"Hydrate before your 3pm meeting."}`))
	})

	msg, fromServer := s.Coach(context.Background(), "u-1", 1200, 2500)
	assert.True(t, fromServer)
	assert.Equal(t, "Hydrate before your 3pm meeting.", msg)
}

func TestCoachFallsBackWhenUnreachable(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"model offline"}`, http.StatusServiceUnavailable)
	})

	msg, fromServer := s.Coach(context.Background(), "u-1", 1200, 2500)
	assert.False(t, fromServer)
	assert.Equal(t, Fallback(1200, 2500), msg)
}

func TestCoachFallsBackOnEmptyMessage(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":""}`))
	})

	_, fromServer := s.Coach(context.Background(), "u-1", 0, 2500)
	assert.False(t, fromServer)
}

func TestFallbackTiers(t *testing.T) {
	// ============================================================
	// Tier boundaries: <500, <1500, <goal, >=goal
	// ============================================================
	assert.Contains(t, Fallback(0, 2500), "getting started")
	assert.Contains(t, Fallback(499, 2500), "getting started")
	assert.Contains(t, Fallback(500, 2500), "Solid start")
	assert.Contains(t, Fallback(1499, 2500), "Solid start")
	assert.Contains(t, Fallback(1500, 2500), "to go")
	assert.Contains(t, Fallback(2500, 2500), "Goal met")
	assert.Contains(t, Fallback(9000, 2500), "Goal met")
}

func TestFallbackGroupsThousands(t *testing.T) {
	// x/text renders 2,499 with a separator for the English locale.
	assert.Contains(t, Fallback(2499, 2500), "2,499")
}
