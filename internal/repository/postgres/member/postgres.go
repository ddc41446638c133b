package member

import (
	"context"
	"errors"

	memberdomain "family-tree-go/internal/domain/member"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(memberdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*memberdomain.Member, error) {
	var m memberdomain.Member
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, memberdomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&memberdomain.Member{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]memberdomain.Member, error) {
	var members []memberdomain.Member
	if err := r.db.WithContext(ctx).Order("id asc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) Search(ctx context.Context, query string, offset, limit int) ([]memberdomain.Member, error) {
	tx := r.db.WithContext(ctx).Model(&memberdomain.Member{})
	if query != "" {
		pattern := "%" + query + "%"
		tx = tx.Where(
			"name ILIKE ? OR last_name ILIKE ? OR CAST(id AS TEXT) LIKE ? OR personal_info::text ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var members []memberdomain.Member
	if err := tx.Order("id asc, name asc").Offset(offset).Limit(limit).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *memberdomain.Member) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *PostgresRepository) Update(ctx context.Context, m *memberdomain.Member) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&memberdomain.Member{}, "id = ?", id).Error
}

func (r *PostgresRepository) ClearParentRefs(ctx context.Context, parentID int64) error {
	if err := r.db.WithContext(ctx).Model(&memberdomain.Member{}).
		Where("mother_id = ?", parentID).
		Update("mother_id", nil).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&memberdomain.Member{}).
		Where("father_id = ?", parentID).
		Update("father_id", nil).Error
}

func (r *PostgresRepository) UpsertBatch(ctx context.Context, members []memberdomain.Member) error {
	if len(members) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "last_name", "gender", "birthday", "mother_id", "father_id",
		}),
	}).Create(&members).Error
	if err != nil {
		return err
	}

	// Imported rows carry explicit ids; keep the sequence ahead of them.
	return r.db.WithContext(ctx).
		Exec("SELECT setval('members_id_seq', (SELECT MAX(id) FROM members))").Error
}
