package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"meal-companion/internal/core/preferences"
	"meal-companion/internal/core/recommendation"
	"meal-companion/internal/pkg/common"
)

type stubBackend struct {
	updateErr error
	updates   int
}

func (b *stubBackend) GetPreferences(ctx context.Context) (*preferences.DietaryPreferences, error) {
	p := preferences.Defaults()
	return &p, nil
}

func (b *stubBackend) UpdatePreferences(ctx context.Context, p preferences.DietaryPreferences) (*preferences.DietaryPreferences, error) {
	b.updates++
	if b.updateErr != nil {
		return nil, b.updateErr
	}
	return &p, nil
}

type stubGenerator struct {
	mu       sync.Mutex
	n        int
	requests []recommendation.GenerateRequest
}

func (g *stubGenerator) GenerateRecommendation(ctx context.Context, req recommendation.GenerateRequest) (*recommendation.Recipe, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	g.requests = append(g.requests, req)
	return &recommendation.Recipe{Name: fmt.Sprintf("Dish %d", g.n)}, nil
}

type provider string

func (p provider) Provider() string { return string(p) }

func newController(backend *stubBackend, gen *stubGenerator) *Controller {
	coord := recommendation.NewCoordinator(gen, provider("ark"))
	return NewController(preferences.NewStore(backend), coord, 3)
}

func TestDerive(t *testing.T) {
	dish := &recommendation.Recipe{Name: "Tomato Soup"}
	tests := []struct {
		name     string
		snapshot recommendation.Snapshot
		want     View
		showForm bool
	}{
		{"Empty", recommendation.Snapshot{}, EditingPreferences, true},
		{"InitialLoad", recommendation.Snapshot{Loading: true}, GeneratingInitial, false},
		{"Results", recommendation.Snapshot{Recommendations: []recommendation.Recipe{*dish}}, ViewingResults, false},
		{"Appending", recommendation.Snapshot{Recommendations: []recommendation.Recipe{*dish}, Loading: true}, AppendingMore, false},
		{"MealLoading", recommendation.Snapshot{Meals: map[recommendation.MealType]recommendation.MealSlot{
			recommendation.Lunch: {Loading: true},
		}}, GeneratingInitial, false},
		{"MealFilled", recommendation.Snapshot{Meals: map[recommendation.MealType]recommendation.MealSlot{
			recommendation.Dinner: {Recipe: dish},
		}}, ViewingResults, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.snapshot); got != tt.want {
				t.Errorf("Expected view %s, got %s", tt.want, got)
			}
			if got := ShouldShowPreferencesForm(tt.snapshot); got != tt.showForm {
				t.Errorf("Expected form visible %v, got %v", tt.showForm, got)
			}
		})
	}
}

func TestStartGatesOnPersistence(t *testing.T) {
	backend := &stubBackend{updateErr: common.NewNetworkError("database unavailable", 500, nil)}
	gen := &stubGenerator{}
	c := newController(backend, gen)

	err := c.Start(context.Background(), preferences.Defaults(), 1)
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if common.ErrorCode(err) != common.ErrCodePersistence {
		t.Errorf("Expected persistence error, got %s", common.ErrorCode(err))
	}
	if gen.n != 0 {
		t.Errorf("Expected no recommendation requests, got %d", gen.n)
	}
	if c.View() != EditingPreferences {
		t.Errorf("Expected to stay on the form, got %s", c.View())
	}
}

func TestStartThenModify(t *testing.T) {
	backend := &stubBackend{}
	gen := &stubGenerator{}
	c := newController(backend, gen)
	ctx := context.Background()

	p := preferences.Defaults()
	p.MealsPerDay = 2
	if err := c.Start(ctx, p, 0); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	st := c.State()
	if st.View != ViewingResults || st.ShowPreferencesForm {
		t.Errorf("Expected results view, got %s (form %v)", st.View, st.ShowPreferencesForm)
	}
	if n := len(st.Recommendations.Recommendations); n != 2 {
		t.Errorf("Expected meals_per_day recommendations, got %d", n)
	}

	if err := c.LoadMore(ctx, 1, nil); err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}
	last := gen.requests[len(gen.requests)-1]
	if len(last.ExcludeRecipes) != 2 {
		t.Errorf("Expected accumulated names excluded, got %v", last.ExcludeRecipes)
	}
	if last.Preferences.MealsPerDay != 2 {
		t.Errorf("Expected current draft used, got meals_per_day %d", last.Preferences.MealsPerDay)
	}

	c.ModifyPreferences()
	if c.View() != EditingPreferences {
		t.Errorf("Expected form after modify, got %s", c.View())
	}
	if c.Preferences().Get().MealsPerDay != 2 {
		t.Error("Expected draft to survive ModifyPreferences")
	}
}

func TestReplaceMealExcludesCurrent(t *testing.T) {
	gen := &stubGenerator{}
	c := newController(&stubBackend{}, gen)
	ctx := context.Background()

	if err := c.StartDaily(ctx, preferences.Defaults()); err != nil {
		t.Fatalf("StartDaily failed: %v", err)
	}
	current := c.State().Recommendations.Meals[recommendation.Lunch].Recipe.Name

	if err := c.ReplaceMeal(ctx, recommendation.Lunch); err != nil {
		t.Fatalf("ReplaceMeal failed: %v", err)
	}
	last := gen.requests[len(gen.requests)-1]
	if len(last.ExcludeRecipes) != 1 || last.ExcludeRecipes[0] != current {
		t.Errorf("Expected exclude [%s], got %v", current, last.ExcludeRecipes)
	}

	err := c.ReplaceMeal(ctx, recommendation.MealType("supper"))
	if !common.IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestStartWithoutAuth(t *testing.T) {
	gen := &stubGenerator{}
	c := newController(&stubBackend{updateErr: common.ErrAuthMissing}, gen)

	err := c.Start(context.Background(), preferences.Defaults(), 1)
	if !errors.Is(err, common.ErrAuthMissing) {
		t.Fatalf("Expected ErrAuthMissing, got %v", err)
	}
	if gen.n != 0 {
		t.Errorf("Expected no recommendation requests, got %d", gen.n)
	}
}
