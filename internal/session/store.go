// Package session keeps per-identity chat dialog state with idle expiry.
package session

import (
	"context"

	"github.com/civicdesk/grievance-service/internal/domain"
)

// Store persists chat sessions. Load never fails for a missing or expired session; it
// returns a fresh idle one instead.
type Store interface {
	Load(ctx context.Context, identity string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, identity string) error
}
