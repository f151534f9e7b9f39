package model

import (
	"time"
)

// User 用户资料。账号认证由外部服务负责，这里只保存资料与偏好
type User struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	ExternalID  string     `gorm:"size:64;uniqueIndex;not null" json:"-"` // 认证服务中的 subject
	DisplayName string     `gorm:"size:50;not null" json:"display_name"`
	Gender      string     `gorm:"size:10;index" json:"gender"` // male, female
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Religion    string     `gorm:"size:30;index" json:"religion"`
	Community   string     `gorm:"size:50" json:"community"`
	City        string     `gorm:"size:50;index" json:"city"`
	Occupation  string     `gorm:"size:100" json:"occupation"`
	Education   string     `gorm:"size:100" json:"education"`
	HeightCM    int        `json:"height_cm"`
	About       string     `gorm:"type:text" json:"about"`
	PhotoURL    string     `gorm:"size:500" json:"photo_url"`

	// 择偶偏好
	LookingFor string `gorm:"size:10" json:"looking_for"`
	PrefMinAge int    `json:"pref_min_age"`
	PrefMaxAge int    `json:"pref_max_age"`

	// 账户设置
	Hidden             bool `gorm:"default:false;index" json:"hidden"`
	NotifyMatches      bool `gorm:"default:true" json:"notify_matches"`
	NotifyMessages     bool `gorm:"default:true" json:"notify_messages"`
	NotifyProfileViews bool `gorm:"default:true" json:"notify_profile_views"`

	LastActiveAt *time.Time `gorm:"index" json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Age 按给定时间计算周岁，未填写生日返回 0
func (u *User) Age(now time.Time) int {
	if u.BirthDate == nil {
		return 0
	}
	b := *u.BirthDate
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age
}
