package user

import (
	"context"
	"errors"
	"time"

	userdomain "family-tree-go/internal/domain/user"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(userdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateUser(ctx context.Context, u *userdomain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*userdomain.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	return r.getUser(ctx, "email = ?", email)
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*userdomain.User, error) {
	return r.getUser(ctx, "username = ?", username)
}

func (r *PostgresRepository) getUser(ctx context.Context, query string, arg any) (*userdomain.User, error) {
	var u userdomain.User
	if err := r.db.WithContext(ctx).First(&u, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.userExists(ctx, "email = ?", email)
}

func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.userExists(ctx, "username = ?", username)
}

func (r *PostgresRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.userExists(ctx, "phone_number = ?", phone)
}

func (r *PostgresRepository) userExists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&userdomain.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&userdomain.User{}).Where("role = ?", userdomain.RoleAdmin).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) SetLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&userdomain.User{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
}

func (r *PostgresRepository) CreateSession(ctx context.Context, s *userdomain.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*userdomain.Session, error) {
	var s userdomain.Session
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) DeleteSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&userdomain.Session{}, "id = ?", id).Error
}
