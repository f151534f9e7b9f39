package dto

// ProfileCard 资料卡片（发现页、匹配列表、资料详情共用）
type ProfileCard struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Age         int    `json:"age,omitempty"`
	Gender      string `json:"gender"`
	Religion    string `json:"religion,omitempty"`
	Community   string `json:"community,omitempty"`
	City        string `json:"city,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	Education   string `json:"education,omitempty"`
	HeightCM    int    `json:"height_cm,omitempty"`
	About       string `json:"about,omitempty"`
	PhotoURL    string `json:"photo_url"`
}

// MyProfile 当前用户的完整资料
type MyProfile struct {
	ProfileCard
	BirthDate  string `json:"birth_date,omitempty"`
	LookingFor string `json:"looking_for"`
	PrefMinAge int    `json:"pref_min_age"`
	PrefMaxAge int    `json:"pref_max_age"`
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" binding:"omitempty,min=1,max=50"`
	Gender      *string `json:"gender,omitempty" binding:"omitempty,oneof=male female"`
	BirthDate   *string `json:"birth_date,omitempty"` // YYYY-MM-DD
	Religion    *string `json:"religion,omitempty" binding:"omitempty,max=30"`
	Community   *string `json:"community,omitempty" binding:"omitempty,max=50"`
	City        *string `json:"city,omitempty" binding:"omitempty,max=50"`
	Occupation  *string `json:"occupation,omitempty" binding:"omitempty,max=100"`
	Education   *string `json:"education,omitempty" binding:"omitempty,max=100"`
	HeightCM    *int    `json:"height_cm,omitempty" binding:"omitempty,min=100,max=250"`
	About       *string `json:"about,omitempty" binding:"omitempty,max=2000"`
	LookingFor  *string `json:"looking_for,omitempty" binding:"omitempty,oneof=male female any"`
	PrefMinAge  *int    `json:"pref_min_age,omitempty" binding:"omitempty,min=18,max=99"`
	PrefMaxAge  *int    `json:"pref_max_age,omitempty" binding:"omitempty,min=18,max=99"`
}

// Settings 账户设置
type Settings struct {
	Hidden             bool `json:"hidden"`
	NotifyMatches      bool `json:"notify_matches"`
	NotifyMessages     bool `json:"notify_messages"`
	NotifyProfileViews bool `json:"notify_profile_views"`
}

// UpdateSettingsRequest 更新设置请求
type UpdateSettingsRequest struct {
	Hidden             *bool `json:"hidden,omitempty"`
	NotifyMatches      *bool `json:"notify_matches,omitempty"`
	NotifyMessages     *bool `json:"notify_messages,omitempty"`
	NotifyProfileViews *bool `json:"notify_profile_views,omitempty"`
}

// DiscoverRequest 发现页筛选条件
type DiscoverRequest struct {
	Gender   string `form:"gender"`
	MinAge   int    `form:"min_age"`
	MaxAge   int    `form:"max_age"`
	Religion string `form:"religion"`
	City     string `form:"city"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size"`
}

// PhotoUploadResponse 照片上传响应
type PhotoUploadResponse struct {
	PhotoURL string `json:"photo_url"`
}
