package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserMetadata 使用者附加資料
type UserMetadata struct {
	Email         string `json:"email"`
	Username      string `json:"username"`
	EmailVerified bool   `json:"email_verified"`
	PhoneVerified bool   `json:"phone_verified"`
}

// User 登入使用者
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

// Session 遠端簽發的登入憑證
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	TokenType    string `json:"token_type"`
	User         User   `json:"user"`
}

// Expiry 取得過期時間；expires_at 缺少時從 access token 的 exp 讀取
//
// token 只在本地解析，不驗證簽章，簽章由遠端負責。
func (s Session) Expiry() (time.Time, bool) {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0), true
	}
	if s.AccessToken == "" {
		return time.Time{}, false
	}

	token, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &jwt.RegisteredClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Credentials 登入資料
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration 註冊資料
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Response 登入、註冊、刷新的回應
type Response struct {
	Message string  `json:"message"`
	Session Session `json:"session"`
}
