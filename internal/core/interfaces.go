//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

package core

import (
	"context"

	"github.com/dkeye/Trivia/internal/domain"
)

// IdentityResolver turns a caller token into a trusted identity.
// It may perform an outbound call and must never be invoked under a session lock.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

// QuestionSource fetches an ordered question set from the question bank.
type QuestionSource interface {
	Fetch(ctx context.Context, c domain.Criteria) ([]domain.SourceQuestion, error)
}

// BroadcastSink delivers snapshots to everyone watching a session.
// Fire-and-forget: it must not block and the engine never retries.
type BroadcastSink interface {
	Publish(id domain.SessionID, snap domain.Snapshot)
}

// HealthChecker is implemented by collaborators that can report reachability.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}
