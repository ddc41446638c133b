package request

import (
	"context"
	"errors"
	"time"

	memberdomain "family-tree-go/internal/domain/member"
	requestdomain "family-tree-go/internal/domain/request"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(requestdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) Create(ctx context.Context, req *requestdomain.AddRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*requestdomain.AddRequest, error) {
	var req requestdomain.AddRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, requestdomain.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]requestdomain.AddRequest, error) {
	var requests []requestdomain.AddRequest
	err := r.db.WithContext(ctx).
		Order("(status = 'pending') desc, submitted_at desc").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// MarkResolved only matches rows still pending, so the first resolver wins
// and everyone else sees zero rows.
func (r *PostgresRepository) MarkResolved(ctx context.Context, id, status, reviewedBy string, reviewedAt time.Time, reason *string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&requestdomain.AddRequest{}).
		Where("id = ? AND status = ?", id, requestdomain.StatusPending).
		Updates(map[string]any{
			"status":        status,
			"reviewed_by":   reviewedBy,
			"reviewed_at":   reviewedAt,
			"reject_reason": reason,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *PostgresRepository) InsertMember(ctx context.Context, m *memberdomain.Member) error {
	return r.db.WithContext(ctx).Create(m).Error
}
