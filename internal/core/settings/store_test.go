package settings

import (
	"context"
	"errors"
	"testing"

	"meal-companion/internal/pkg/common"
)

type fakeBackend struct {
	info       *UserInfo
	infoErr    error
	updateErr  error
	updates    []Update
	profileErr error
	profiles   []ProfileUpdate
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, u ProfileUpdate) (*Profile, error) {
	f.profiles = append(f.profiles, u)
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p := Profile{ID: "u-1"}
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
	return &p, nil
}

func (f *fakeBackend) GetUserInfo(ctx context.Context) (*UserInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeBackend) UpdateSettings(ctx context.Context, u Update) (*Settings, error) {
	f.updates = append(f.updates, u)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	s := Settings{ID: "s-1"}
	if u.LLMService != nil {
		s.LLMService = *u.LLMService
	}
	return &s, nil
}

func TestProviderFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultWhenUnset", func(t *testing.T) {
		s := NewStore(&fakeBackend{}, "ark")
		if got := s.Provider(); got != "ark" {
			t.Errorf("Expected ark, got %q", got)
		}
	})

	t.Run("EmptyWhenNothingConfigured", func(t *testing.T) {
		s := NewStore(&fakeBackend{}, "  ")
		if got := s.Provider(); got != "" {
			t.Errorf("Expected empty provider, got %q", got)
		}
	})

	t.Run("UserSettingWins", func(t *testing.T) {
		backend := &fakeBackend{info: &UserInfo{
			Profile:  Profile{ID: "u-1", Username: "cook"},
			Settings: &Settings{LLMService: ProviderDeepSeek, APIKey: "sk-live"},
		}}
		s := NewStore(backend, "ark")
		if _, err := s.FetchUserInfo(ctx); err != nil {
			t.Fatalf("FetchUserInfo failed: %v", err)
		}
		if got := s.Provider(); got != ProviderDeepSeek {
			t.Errorf("Expected deepseek, got %q", got)
		}
		if key := s.State().Settings.APIKey; key == "sk-live" {
			t.Error("Expected API key redacted in state")
		}
	})
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("RejectsUnknownProvider", func(t *testing.T) {
		backend := &fakeBackend{}
		s := NewStore(backend, "")
		bogus := "openai-ish"
		if err := s.UpdateSettings(ctx, Update{LLMService: &bogus}); !common.IsValidationError(err) {
			t.Errorf("Expected validation error, got %v", err)
		}
		if len(backend.updates) != 0 {
			t.Errorf("Expected no remote call, got %d", len(backend.updates))
		}
	})

	t.Run("StoresResult", func(t *testing.T) {
		s := NewStore(&fakeBackend{}, "")
		provider := ProviderSiliconFlow
		if err := s.UpdateSettings(ctx, Update{LLMService: &provider}); err != nil {
			t.Fatalf("UpdateSettings failed: %v", err)
		}
		if s.Provider() != ProviderSiliconFlow {
			t.Errorf("Expected siliconflow, got %q", s.Provider())
		}
	})

	t.Run("AuthMissingLeavesErrorEmpty", func(t *testing.T) {
		s := NewStore(&fakeBackend{updateErr: common.ErrAuthMissing}, "")
		provider := ProviderArk
		err := s.UpdateSettings(ctx, Update{LLMService: &provider})
		if !errors.Is(err, common.ErrAuthMissing) {
			t.Fatalf("Expected ErrAuthMissing, got %v", err)
		}
		if s.State().Error != "" {
			t.Errorf("Expected no error message, got %q", s.State().Error)
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("TrimsAndStoresProfile", func(t *testing.T) {
		backend := &fakeBackend{}
		s := NewStore(backend, "ark")
		name := "  cook  "
		if err := s.UpdateProfile(ctx, ProfileUpdate{Username: &name}); err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		if len(backend.profiles) != 1 || *backend.profiles[0].Username != "cook" {
			t.Errorf("Expected trimmed username sent, got %+v", backend.profiles)
		}
		st := s.State()
		if st.Profile == nil || st.Profile.Username != "cook" {
			t.Errorf("Expected profile cook, got %+v", st.Profile)
		}
	})

	t.Run("RejectsEmptyUpdate", func(t *testing.T) {
		backend := &fakeBackend{}
		s := NewStore(backend, "ark")
		blank := " "
		for _, u := range []ProfileUpdate{{}, {Username: &blank}} {
			if err := s.UpdateProfile(ctx, u); !common.IsValidationError(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		}
		if len(backend.profiles) != 0 {
			t.Errorf("Expected no remote call, got %d", len(backend.profiles))
		}
	})

	t.Run("RemoteFailureSetsError", func(t *testing.T) {
		backend := &fakeBackend{profileErr: common.NewNetworkError("username taken", 409, nil)}
		s := NewStore(backend, "ark")
		avatar := "https://img.example/a.png"
		if err := s.UpdateProfile(ctx, ProfileUpdate{AvatarURL: &avatar}); err == nil {
			t.Fatal("Expected an error, got nil")
		}
		if got := s.State().Error; got != "username taken" {
			t.Errorf("Expected remote message, got %q", got)
		}
	})
}
