package settings

import (
	"meal-companion/internal/core/preferences"
	"meal-companion/internal/core/recipe"
)

// 可選的生成服務
const (
	ProviderArk         = "ark"
	ProviderCoze        = "coze"
	ProviderDify        = "dify"
	ProviderDeepSeek    = "deepseek"
	ProviderSiliconFlow = "siliconflow"
	ProviderCustom      = "custom"
)

// Providers 所有可選的生成服務
var Providers = []string{
	ProviderArk,
	ProviderCoze,
	ProviderDify,
	ProviderDeepSeek,
	ProviderSiliconFlow,
	ProviderCustom,
}

// ValidProvider 是否為可選的生成服務
func ValidProvider(p string) bool {
	for _, v := range Providers {
		if v == p {
			return true
		}
	}
	return false
}

// Profile 使用者資料
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Settings 生成服務設定
type Settings struct {
	ID          string `json:"id"`
	LLMService  string `json:"llmService"`
	ModelName   string `json:"modelName,omitempty"`
	IsPaid      bool   `json:"isPaid"`
	APIKey      string `json:"apiKey,omitempty"`
	APIEndpoint string `json:"apiEndpoint,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Redacted 隱藏 API key，回傳給 UI 時使用
func (s Settings) Redacted() Settings {
	if s.APIKey != "" {
		s.APIKey = "********"
	}
	return s
}

// Update 部分更新，nil 表示不變
type Update struct {
	LLMService  *string `json:"llmService,omitempty"`
	ModelName   *string `json:"modelName,omitempty"`
	IsPaid      *bool   `json:"isPaid,omitempty"`
	APIKey      *string `json:"apiKey,omitempty"`
	APIEndpoint *string `json:"apiEndpoint,omitempty"`
}

// ProfileUpdate 使用者資料部分更新，nil 表示不變
type ProfileUpdate struct {
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// UserInfo /users/info 回應
type UserInfo struct {
	Profile     Profile                        `json:"profile"`
	Preferences preferences.DietaryPreferences `json:"preferences"`
	Settings    *Settings                      `json:"settings"`
	Favorites   []recipe.Recipe                `json:"favorites"`
}
