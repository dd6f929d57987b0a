// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/chorechat/internal/domain"
)

// Repository is the data-access collaborator of the assistant. It builds
// family snapshots and keeps the chat history of each session.
type Repository interface {
	// LoadFamilyContext builds a snapshot of a family. Completions older than
	// since are left out; the points ledger is always complete. A missing
	// family yields nil, nil.
	LoadFamilyContext(ctx context.Context, familyID string, since time.Time) (*domain.FamilyContext, error)

	// SaveFamily replaces everything stored for fc.FamilyID with fc.
	SaveFamily(ctx context.Context, fc *domain.FamilyContext) error

	// AppendMessage stores one chat message of a session.
	AppendMessage(ctx context.Context, familyID, sessionID string, msg domain.ConversationMessage) error

	// RecentMessages returns up to limit of the newest messages of a session, oldest first.
	RecentMessages(ctx context.Context, familyID, sessionID string, limit int) ([]domain.ConversationMessage, error)

	// CleanupMessages removes chat messages older than retention.
	CleanupMessages(ctx context.Context, retention time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
