package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/vivah_server/internal/model"
)

var likeKinds = []string{model.KindLike, model.KindSuperlike}

// Pair 一对用户，Low < High
type Pair struct {
	Low  int64
	High int64
}

type InteractionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// Create 创建互动记录
func (r *InteractionRepository) Create(ctx context.Context, interaction *model.Interaction) error {
	return r.db.WithContext(ctx).Create(interaction).Error
}

// CreateIfAbsent 按去重键插入，已存在时返回 false 且不报错
func (r *InteractionRepository) CreateIfAbsent(ctx context.Context, interaction *model.Interaction) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(interaction)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetByDedupKey 根据去重键获取互动
func (r *InteractionRepository) GetByDedupKey(ctx context.Context, actorID, targetID int64, key string) (*model.Interaction, error) {
	var interaction model.Interaction
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ? AND dedup_key = ?", actorID, targetID, key).
		First(&interaction).Error
	if err != nil {
		return nil, err
	}
	return &interaction, nil
}

// HasLiked 检查 actor 是否喜欢过 target（like 或 superlike）
func (r *InteractionRepository) HasLiked(ctx context.Context, actorID, targetID int64) (bool, error) {
	return r.LikedSince(ctx, actorID, targetID, time.Time{})
}

// LikedSince 检查 actor 在 since 之后是否喜欢过 target
func (r *InteractionRepository) LikedSince(ctx context.Context, actorID, targetID int64, since time.Time) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Interaction{}).
		Where("actor_id = ? AND target_id = ? AND kind IN ?", actorID, targetID, likeKinds)
	if !since.IsZero() {
		query = query.Where("created_at > ?", since)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Count 统计某类互动数量
func (r *InteractionRepository) Count(ctx context.Context, actorID, targetID int64, kind string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Interaction{}).
		Where("actor_id = ? AND target_id = ? AND kind = ?", actorID, targetID, kind).
		Count(&count).Error
	return count, err
}

// ListByActor 获取用户发出的互动（按时间倒序）
func (r *InteractionRepository) ListByActor(ctx context.Context, actorID int64, kind string, page, pageSize int) ([]*model.Interaction, int64, error) {
	var total int64
	var interactions []*model.Interaction

	query := r.db.WithContext(ctx).Model(&model.Interaction{}).Where("actor_id = ?", actorID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&interactions).Error
	return interactions, total, err
}

// ListMutualLikePairsSince 找出 since 之后至少有一方新增喜欢、且双方互相喜欢的用户对
func (r *InteractionRepository) ListMutualLikePairsSince(ctx context.Context, since time.Time) ([]Pair, error) {
	type row struct {
		Low  int64 `gorm:"column:pair_low"`
		High int64 `gorm:"column:pair_high"`
	}
	var rows []row

	err := r.db.WithContext(ctx).Table("interactions AS a").
		Select("a.actor_id AS pair_low, a.target_id AS pair_high").
		Joins("JOIN interactions AS b ON b.actor_id = a.target_id AND b.target_id = a.actor_id").
		Where("a.kind IN ? AND b.kind IN ?", likeKinds, likeKinds).
		Where("a.actor_id < a.target_id").
		Where("(a.created_at >= ? OR b.created_at >= ?)", since, since).
		Group("a.actor_id, a.target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, len(rows))
	for i, r := range rows {
		pairs[i] = Pair{Low: r.Low, High: r.High}
	}
	return pairs, nil
}

// CountViewsBefore 统计 before 之前的浏览记录
func (r *InteractionRepository) CountViewsBefore(ctx context.Context, before time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Interaction{}).
		Where("kind = ? AND created_at < ?", model.KindView, before).
		Count(&count).Error
	return count, err
}

// DeleteViewsBefore 删除 before 之前的浏览记录，喜欢与跳过不受影响
func (r *InteractionRepository) DeleteViewsBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("kind = ? AND created_at < ?", model.KindView, before).
		Delete(&model.Interaction{})
	return result.RowsAffected, result.Error
}
