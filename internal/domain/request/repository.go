package request

import (
	"context"
	"time"

	"family-tree-go/internal/domain/member"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	Create(ctx context.Context, req *AddRequest) error
	GetByID(ctx context.Context, id string) (*AddRequest, error)
	List(ctx context.Context, offset, limit int) ([]AddRequest, error)
	// MarkResolved transitions the request out of pending, recording the
	// reviewer. Returns the number of rows that actually transitioned: zero
	// means the request was absent or already resolved.
	MarkResolved(ctx context.Context, id, status, reviewedBy string, reviewedAt time.Time, reason *string) (int64, error)
	// InsertMember creates the member row for an approved request within the
	// same transaction.
	InsertMember(ctx context.Context, m *member.Member) error
}

// ParentChecker verifies proposed parent links against the member store.
type ParentChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}
