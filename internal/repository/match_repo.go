package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/vivah_server/internal/model"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// GetByPair 按无序用户对查询匹配（先规范化，走唯一索引）
func (r *MatchRepository) GetByPair(ctx context.Context, a, b int64) (*model.Match, error) {
	low, high := model.CanonicalPair(a, b)

	var match model.Match
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *MatchRepository) GetByPublicID(ctx context.Context, publicID string) (*model.Match, error) {
	var match model.Match
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// CreateIfAbsent 插入匹配，用户对已存在时不插入并返回 false。
// 并发写入由 (user_low_id, user_high_id) 唯一索引保证只留下一行
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, match *model.Match) (bool, error) {
	match.UserLowID, match.UserHighID = model.CanonicalPair(match.UserLowID, match.UserHighID)

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(match)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Reactivate 将已取消的匹配恢复为 active，只有真正完成状态切换的调用方返回 true
func (r *MatchRepository) Reactivate(ctx context.Context, id int64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ? AND status = ?", id, model.MatchStatusUnmatched).
		Updates(map[string]interface{}{
			"status":       model.MatchStatusActive,
			"matched_at":   at,
			"unmatched_at": nil,
			"unmatched_by": nil,
		})
	return result.RowsAffected > 0, result.Error
}

// Unmatch 取消匹配
func (r *MatchRepository) Unmatch(ctx context.Context, id, byUserID int64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ? AND status = ?", id, model.MatchStatusActive).
		Updates(map[string]interface{}{
			"status":       model.MatchStatusUnmatched,
			"unmatched_at": at,
			"unmatched_by": byUserID,
		})
	return result.RowsAffected > 0, result.Error
}

// ListActiveByUser 获取用户的有效匹配
func (r *MatchRepository) ListActiveByUser(ctx context.Context, userID int64, page, pageSize int) ([]*model.Match, int64, error) {
	var total int64
	var matches []*model.Match

	query := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("(user_low_id = ? OR user_high_id = ?) AND status = ?", userID, userID, model.MatchStatusActive)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("matched_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&matches).Error
	return matches, total, err
}

// CountByPair 统计用户对的匹配行数
func (r *MatchRepository) CountByPair(ctx context.Context, a, b int64) (int64, error) {
	low, high := model.CanonicalPair(a, b)

	var count int64
	err := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Count(&count).Error
	return count, err
}
