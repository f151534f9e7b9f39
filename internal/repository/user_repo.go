package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/internal/model"
)

// DiscoverFilter 发现页过滤条件，生日区间由年龄换算而来
type DiscoverFilter struct {
	Gender       string
	BornAfter    *time.Time
	BornBefore   *time.Time
	Religion     string
	City         string
	ExcludeSwipe bool
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDs 批量获取用户，返回 id -> user
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	result := make(map[int64]*model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []*model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *UserRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) TouchLastActive(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		UpdateColumn("last_active_at", at).Error
}

// Discover 获取候选用户：排除自己、隐藏资料，以及（可选）已经滑过的用户
func (r *UserRepository) Discover(ctx context.Context, viewerID int64, filter DiscoverFilter, page, pageSize int) ([]*model.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id <> ? AND hidden = ?", viewerID, false)

	if filter.Gender != "" {
		query = query.Where("gender = ?", filter.Gender)
	}
	if filter.Religion != "" {
		query = query.Where("religion = ?", filter.Religion)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.BornAfter != nil {
		query = query.Where("birth_date >= ?", *filter.BornAfter)
	}
	if filter.BornBefore != nil {
		query = query.Where("birth_date <= ?", *filter.BornBefore)
	}
	if filter.ExcludeSwipe {
		swiped := r.db.Model(&model.Interaction{}).
			Select("target_id").
			Where("actor_id = ? AND kind IN ?", viewerID,
				[]string{model.KindLike, model.KindPass, model.KindSuperlike})
		query = query.Where("id NOT IN (?)", swiped)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*model.User
	offset := (page - 1) * pageSize
	err := query.Order("last_active_at DESC").Order("id DESC").
		Offset(offset).Limit(pageSize).Find(&users).Error
	return users, total, err
}
