// Package insight produces the daily coach message.
//
// The backend's coach endpoint is preferred; when it is unreachable the
// service degrades to a local tiered message so the surface never shows an
// error. Volumes are rendered with locale-aware grouping (2,500 ml) via
// x/text.
package insight

import (
	"context"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/sipstream/internal/api"
)

var printer = message.NewPrinter(language.English)

// Service fetches coach messages with a local fallback.
type Service struct {
	client *api.Client
}

// New builds a service over the API client.
func New(client *api.Client) *Service {
	return &Service{client: client}
}

// Coach returns a message about today's progress. fromServer reports
// whether the backend produced it; false means the tiered fallback was
// used. Coach never returns an error; an unreachable coach is a quality
// downgrade, not a failure.
func (s *Service) Coach(ctx context.Context, userID string, total, goal int) (msg string, fromServer bool) {
	remote, err := s.client.Insight(ctx, userID, total, goal)
	if err == nil && remote != "" {
		return remote, true
	}
	if err != nil {
		slog.Warn("coach endpoint unavailable, using fallback", "err", err)
	}
	return Fallback(total, goal), false
}

// Fallback picks a message tier from today's progress alone.
func Fallback(total, goal int) string {
	switch {
	case total < 500:
		return printer.Sprintf("Just getting started. A glass of water now puts %d ml on the board.", 250)
	case total < 1500:
		return printer.Sprintf("Solid start at %d ml. Keep a bottle within reach this afternoon.", total)
	case total < goal:
		remaining := goal - total
		return printer.Sprintf("You're at %d ml with %d ml to go. One more push gets you there.", total, remaining)
	default:
		return printer.Sprintf("Goal met at %d ml. Nicely done. Ease off and listen to your thirst.", total)
	}
}
