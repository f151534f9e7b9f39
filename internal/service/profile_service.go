package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/pkg/oss"
	"github.com/qs3c/vivah_server/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInvalidBirthDate   = errors.New("生日格式错误，应为 YYYY-MM-DD")
	ErrUnderage           = errors.New("未满 18 周岁")
	ErrInvalidAgeRange    = errors.New("年龄范围无效")
	ErrPhotoTooLarge      = errors.New("照片过大")
	ErrPhotoType          = errors.New("只支持 jpg、png、webp 格式")
	ErrStorageUnavailable = errors.New("照片存储未配置")
)

const minAge = 18

// PhotoStorage 照片存储，oss.Client 实现了该接口
type PhotoStorage interface {
	UploadPhoto(userID int64, data []byte, ext string) (string, error)
	DeleteByURL(url string) error
}

type ProfileService struct {
	userRepo      *repository.UserRepository
	interactions  *InteractionService
	notifications *NotificationService
	audit         *AuditService
	storage       PhotoStorage
	cfg           *config.Config
	now           func() time.Time
}

func NewProfileService(
	userRepo *repository.UserRepository,
	interactions *InteractionService,
	notifications *NotificationService,
	audit *AuditService,
	storage PhotoStorage,
	cfg *config.Config,
) *ProfileService {
	return &ProfileService{
		userRepo:      userRepo,
		interactions:  interactions,
		notifications: notifications,
		audit:         audit,
		storage:       storage,
		cfg:           cfg,
		now:           time.Now,
	}
}

// GetMe 获取自己的完整资料
func (s *ProfileService) GetMe(ctx context.Context, userID int64) (*dto.MyProfile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toMyProfile(user, s.now()), nil
}

// UpdateProfile 更新资料，只修改请求中出现的字段
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.MyProfile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	setString := func(column string, v *string) {
		if v != nil {
			fields[column] = strings.TrimSpace(*v)
		}
	}
	setString("display_name", req.DisplayName)
	setString("gender", req.Gender)
	setString("religion", req.Religion)
	setString("community", req.Community)
	setString("city", req.City)
	setString("occupation", req.Occupation)
	setString("education", req.Education)
	setString("about", req.About)
	setString("looking_for", req.LookingFor)

	if req.HeightCM != nil {
		fields["height_cm"] = *req.HeightCM
	}

	if req.BirthDate != nil {
		birth, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return nil, ErrInvalidBirthDate
		}
		probe := model.User{BirthDate: &birth}
		if probe.Age(s.now()) < minAge {
			return nil, ErrUnderage
		}
		fields["birth_date"] = birth
	}

	prefMin, prefMax := user.PrefMinAge, user.PrefMaxAge
	if req.PrefMinAge != nil {
		prefMin = *req.PrefMinAge
		fields["pref_min_age"] = prefMin
	}
	if req.PrefMaxAge != nil {
		prefMax = *req.PrefMaxAge
		fields["pref_max_age"] = prefMax
	}
	if prefMin > 0 && prefMax > 0 && prefMin > prefMax {
		return nil, ErrInvalidAgeRange
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}

	return s.GetMe(ctx, userID)
}

// GetSettings 获取账户设置
func (s *ProfileService) GetSettings(ctx context.Context, userID int64) (*dto.Settings, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toSettings(user), nil
}

// UpdateSettings 更新账户设置。布尔字段必须用 map 更新，否则 false 会被忽略
func (s *ProfileService) UpdateSettings(ctx context.Context, userID int64, req *dto.UpdateSettingsRequest) (*dto.Settings, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Hidden != nil {
		fields["hidden"] = *req.Hidden
	}
	if req.NotifyMatches != nil {
		fields["notify_matches"] = *req.NotifyMatches
	}
	if req.NotifyMessages != nil {
		fields["notify_messages"] = *req.NotifyMessages
	}
	if req.NotifyProfileViews != nil {
		fields["notify_profile_views"] = *req.NotifyProfileViews
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.GetSettings(ctx, userID)
}

// Discover 按条件获取候选资料，已经滑过的用户不再出现
func (s *ProfileService) Discover(ctx context.Context, viewerID int64, req *dto.DiscoverRequest) ([]*dto.ProfileCard, int64, error) {
	if req.MinAge < 0 || req.MaxAge < 0 || (req.MinAge > 0 && req.MaxAge > 0 && req.MinAge > req.MaxAge) {
		return nil, 0, ErrInvalidAgeRange
	}

	req.Page, req.PageSize = normalizePage(req.Page, req.PageSize,
		s.cfg.Discovery.DefaultPageSize, s.cfg.Discovery.MaxPageSize)

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	filter := repository.DiscoverFilter{
		Gender:       req.Gender,
		Religion:     req.Religion,
		City:         req.City,
		ExcludeSwipe: true,
	}
	if req.MinAge > 0 {
		// 满 MinAge 周岁：生日不晚于 now - MinAge 年
		before := today.AddDate(-req.MinAge, 0, 0)
		filter.BornBefore = &before
	}
	if req.MaxAge > 0 {
		// 未满 MaxAge+1 周岁：生日晚于 now - (MaxAge+1) 年
		after := today.AddDate(-(req.MaxAge + 1), 0, 1)
		filter.BornAfter = &after
	}

	users, total, err := s.userRepo.Discover(ctx, viewerID, filter, req.Page, req.PageSize)
	if err != nil {
		return nil, 0, err
	}

	cards := make([]*dto.ProfileCard, len(users))
	for i, u := range users {
		cards[i] = toProfileCard(u, now)
	}
	return cards, total, nil
}

// ViewProfile 查看他人资料，当天第一次查看时记录浏览并通知对方
func (s *ProfileService) ViewProfile(ctx context.Context, viewerID, targetID int64) (*dto.ProfileCard, error) {
	target, err := s.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	card := toProfileCard(target, s.now())

	if viewerID == targetID {
		return card, nil
	}

	_, created, err := s.interactions.RecordView(ctx, viewerID, targetID)
	if err != nil {
		log.Printf("Failed to record profile view %d -> %d: %v", viewerID, targetID, err)
		return card, nil
	}

	if created {
		payload := &ProfileViewPayload{ViewerID: viewerID}
		if viewer, err := s.userRepo.GetByID(ctx, viewerID); err == nil {
			payload.ViewerName = viewer.DisplayName
		}
		if _, err := s.notifications.Append(ctx, targetID, payload); err != nil {
			log.Printf("Failed to notify profile view %d -> %d: %v", viewerID, targetID, err)
		}
	}

	return card, nil
}

// UploadPhoto 上传资料照片并替换旧照片
func (s *ProfileService) UploadPhoto(ctx context.Context, userID int64, data []byte, ext string) (string, error) {
	if s.storage == nil {
		return "", ErrStorageUnavailable
	}

	ext = strings.ToLower(ext)
	if !oss.IsAllowedImage(ext) {
		return "", ErrPhotoType
	}
	if limit := s.cfg.OSS.MaxPhotoSize; limit > 0 && int64(len(data)) > limit {
		return "", ErrPhotoTooLarge
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}

	url, err := s.storage.UploadPhoto(userID, data, ext)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"photo_url": url}); err != nil {
		return "", err
	}

	if user.PhotoURL != "" {
		if err := s.storage.DeleteByURL(user.PhotoURL); err != nil {
			log.Printf("Failed to delete old photo for user %d: %v", userID, err)
		}
	}

	s.audit.Log(ctx, userID, model.AuditPhotoUpload, userID, fmt.Sprintf("size=%d", len(data)))
	return url, nil
}

func (s *ProfileService) getUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func toProfileCard(u *model.User, now time.Time) *dto.ProfileCard {
	return &dto.ProfileCard{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Age:         u.Age(now),
		Gender:      u.Gender,
		Religion:    u.Religion,
		Community:   u.Community,
		City:        u.City,
		Occupation:  u.Occupation,
		Education:   u.Education,
		HeightCM:    u.HeightCM,
		About:       u.About,
		PhotoURL:    u.PhotoURL,
	}
}

func toMyProfile(u *model.User, now time.Time) *dto.MyProfile {
	profile := &dto.MyProfile{
		ProfileCard: *toProfileCard(u, now),
		LookingFor:  u.LookingFor,
		PrefMinAge:  u.PrefMinAge,
		PrefMaxAge:  u.PrefMaxAge,
	}
	if u.BirthDate != nil {
		profile.BirthDate = u.BirthDate.Format("2006-01-02")
	}
	return profile
}

func toSettings(u *model.User) *dto.Settings {
	return &dto.Settings{
		Hidden:             u.Hidden,
		NotifyMatches:      u.NotifyMatches,
		NotifyMessages:     u.NotifyMessages,
		NotifyProfileViews: u.NotifyProfileViews,
	}
}
