package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sipstream/internal/api"
	"github.com/roach88/sipstream/internal/waterlog"
)

// cliBackend covers the endpoints the one-shot commands touch.
type cliBackend struct {
	mu      sync.Mutex
	nextID  int
	entries map[string][]waterlog.Entry
	goals   map[string]int
}

func (b *cliBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		enc := json.NewEncoder(w)
		day := func(user, date string) waterlog.DayLedger {
			var d waterlog.DayLedger
			for _, e := range b.entries[user] {
				if e.Day() == date {
					d.Entries = append(d.Entries, e)
					d.Total += e.Amount
				}
			}
			d.GoalSnapshot = b.goals[user+"|"+date]
			return d
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/log":
			var req api.CreateEntryRequest
			json.NewDecoder(r.Body).Decode(&req)
			b.nextID++
			ts := time.Now()
			if req.Timestamp != nil {
				ts = *req.Timestamp
			}
			b.entries[req.UserID] = append(b.entries[req.UserID], waterlog.Entry{
				ID: strconv.Itoa(b.nextID), Amount: req.Amount, Timestamp: ts, DrinkType: req.DrinkType,
			})
			enc.Encode(day(req.UserID, req.Date))
		case strings.HasPrefix(r.URL.Path, "/history/"):
			enc.Encode(day(strings.TrimPrefix(r.URL.Path, "/history/"), r.URL.Query().Get("date")))
		case strings.HasPrefix(r.URL.Path, "/stats/"):
			enc.Encode(waterlog.Stats{Streak: 1})
		case r.URL.Path == "/update-goal":
			var req struct {
				UserID string `json:"user_id"`
				Date   string `json:"date"`
				Goal   int    `json:"goal"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			b.goals[req.UserID+"|"+req.Date] = req.Goal
			w.Write([]byte("{}"))
		case r.URL.Path == "/claim" || r.URL.Path == "/import":
			w.Write([]byte("{}"))
		case strings.HasPrefix(r.URL.Path, "/preferences/"):
			if r.Method == http.MethodPut {
				w.Write([]byte("{}"))
				return
			}
			http.NotFound(w, r)
		case strings.HasPrefix(r.URL.Path, "/ai-feedback/"):
			enc.Encode(map[string]string{"message": "Drink up."})
		default:
			http.NotFound(w, r)
		}
	}
}

// runCLI executes the command tree against a scratch config and returns
// stdout.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func setupCLI(t *testing.T) string {
	t.Helper()
	b := &cliBackend{entries: map[string][]waterlog.Entry{}, goals: map[string]int{}}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("backend_url: %s\ndata_dir: %s\n", srv.URL, filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o644))
	return configPath
}

func TestStatusShowsGuestDefaults(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "0 / 2500 ml")
	assert.Contains(t, out, "[guest]")
}

func TestLogThenStatusRoundTrip(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "log", "--amount", "600", "--type", "water")
	require.NoError(t, err)
	assert.Contains(t, out, "logged 600ml water")

	out, err = runCLI(t, configPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "600 / 2500 ml")
}

func TestLogJSONOutput(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "--format", "json", "log", "--amount", "300", "--type", "coffee")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(255), data["effective_ml"])
}

func TestGoalSetAndShow(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "goal", "set", "3000")
	require.NoError(t, err)
	assert.Contains(t, out, "base goal 3000ml")

	out, err = runCLI(t, configPath, "goal")
	require.NoError(t, err)
	assert.Contains(t, out, "base 3000ml")
}

func TestConditionToggleRaisesGoal(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "condition", "toggle", "hot")
	require.NoError(t, err)
	assert.Contains(t, out, "effective goal 3000ml")

	// Toggles persist across invocations within the same day.
	out, err = runCLI(t, configPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "/ 3000 ml")
}

func TestLoginSwitchesIdentity(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "login", "--user", "u-1", "--email", "a@b.c")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as u-1")

	out, err = runCLI(t, configPath, "status")
	require.NoError(t, err)
	assert.NotContains(t, out, "[guest]")
}

func TestPresetCRUDAndLogging(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "preset")
	require.NoError(t, err)
	assert.Contains(t, out, "Small Glass")
	assert.Contains(t, out, "150ml")

	_, err = runCLI(t, configPath, "preset", "add", "Mug", "350")
	require.NoError(t, err)

	out, err = runCLI(t, configPath, "log", "--preset", "mug")
	require.NoError(t, err)
	assert.Contains(t, out, "logged 350ml water")

	_, err = runCLI(t, configPath, "preset", "rm", "Mug")
	require.NoError(t, err)

	_, err = runCLI(t, configPath, "log", "--preset", "mug")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestStatsShowsStreak(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "streak 1d")
}

func TestSyncReportsOnline(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "online")
}

func TestBadgesListsCatalog(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "badges")
	require.NoError(t, err)
	assert.Contains(t, out, "first_sip")
	assert.Contains(t, out, "Hydration Hero")
}

func TestInsightPrintsMessage(t *testing.T) {
	configPath := setupCLI(t)

	out, err := runCLI(t, configPath, "insight")
	require.NoError(t, err)
	assert.Contains(t, out, "Drink up.")
}

func TestInvalidFormatIsCommandError(t *testing.T) {
	configPath := setupCLI(t)

	_, err := runCLI(t, configPath, "--format", "xml", "status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMissingLoginUserIsCommandError(t *testing.T) {
	configPath := setupCLI(t)

	_, err := runCLI(t, configPath, "login")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExitCodePlumbing(t *testing.T) {
	plain := errors.New("boom")
	assert.Equal(t, ExitFailure, GetExitCode(plain))

	wrapped := WrapExitError(ExitCommandError, "bad flag", plain)
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.ErrorIs(t, wrapped, plain)
	assert.Contains(t, wrapped.Error(), "bad flag")
}
