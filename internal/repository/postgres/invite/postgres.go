package invite

import (
	"context"
	"errors"

	invitedomain "family-tree-go/internal/domain/invite"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(invitedomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) Create(ctx context.Context, inv *invitedomain.Invite) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*invitedomain.Invite, error) {
	var inv invitedomain.Invite
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invitedomain.ErrInviteNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]invitedomain.Invite, error) {
	var invites []invitedomain.Invite
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *PostgresRepository) SetTOTPSecret(ctx context.Context, id string, secret []byte) error {
	return r.db.WithContext(ctx).Model(&invitedomain.Invite{}).
		Where("id = ?", id).
		Update("totp_secret", secret).Error
}

func (r *PostgresRepository) MarkResolved(ctx context.Context, id, status string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&invitedomain.Invite{}).
		Where("id = ? AND status = ?", id, invitedomain.StatusPending).
		Update("status", status)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
