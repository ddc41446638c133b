package member

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetByID(ctx context.Context, id int64) (*Member, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context) ([]Member, error)
	Search(ctx context.Context, query string, offset, limit int) ([]Member, error)
	Create(ctx context.Context, m *Member) error
	Update(ctx context.Context, m *Member) error
	Delete(ctx context.Context, id int64) error
	// ClearParentRefs sets mother_id/father_id to null on every member
	// referencing parentID.
	ClearParentRefs(ctx context.Context, parentID int64) error
	// UpsertBatch inserts members keeping their ids, updating on conflict.
	// Used by CSV import.
	UpsertBatch(ctx context.Context, members []Member) error
}
