package recipe

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"meal-companion/internal/core/cache"
	"meal-companion/internal/core/preferences"
	"meal-companion/internal/core/recommendation"
	"meal-companion/internal/pkg/common"
)

type fakeBackend struct {
	mu            sync.Mutex
	created       []Recipe
	sentPrefs     []preferences.DietaryPreferences
	failName      string
	favorites     []Recipe
	favoriteCalls int
	toggled       []string
	recipes       map[string]Recipe
	queries       []Query
	getErr        error
}

func (f *fakeBackend) CreateRecipe(ctx context.Context, r Recipe, prefs preferences.DietaryPreferences) (*Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Name == f.failName {
		return nil, common.NewNetworkError("failed to save recipe", 500, nil)
	}
	f.created = append(f.created, r)
	f.sentPrefs = append(f.sentPrefs, prefs)
	r.ID = fmt.Sprintf("id-%d", len(f.created))
	return &r, nil
}

func (f *fakeBackend) ListFavorites(ctx context.Context) ([]Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favoriteCalls++
	return f.favorites, nil
}

func (f *fakeBackend) ListRecipes(ctx context.Context, q Query) ([]Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	out := []Recipe{}
	for _, r := range f.recipes {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeBackend) GetRecipe(ctx context.Context, id string) (*Recipe, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.recipes[id]
	if !ok {
		return nil, common.NewNetworkError("recipe not found", 404, nil)
	}
	return &r, nil
}

func (f *fakeBackend) ToggleFavorite(ctx context.Context, id string) error {
	f.toggled = append(f.toggled, id)
	return nil
}

func TestFromRecommendation(t *testing.T) {
	fiber := 3.5
	r := recommendation.Recipe{
		Name:        "Tomato Soup",
		Calories:    180,
		CookingTime: 20,
		CuisineType: []string{"italian"},
		DietType:    []string{"vegetarian", "low-fat"},
		Ingredients: []recommendation.Ingredient{{Name: "tomato", Amount: 3, Unit: "pcs"}},
		NutritionFacts: recommendation.NutritionFacts{
			Protein: 4, Carbs: 30, Fat: 5, Fiber: &fiber,
		},
		Steps: []string{"chop", "simmer"},
	}

	got := FromRecommendation(r)
	if got.Description != "italian - vegetarian/low-fat" {
		t.Errorf("Expected description 'italian - vegetarian/low-fat', got %q", got.Description)
	}
	if got.Difficulty != DefaultDifficulty || got.Servings != DefaultServings {
		t.Errorf("Expected defaults medium/2, got %s/%d", got.Difficulty, got.Servings)
	}
	if len(got.Steps) != 2 || got.Steps[1].Order != 2 || got.Steps[1].Description != "simmer" {
		t.Errorf("Expected ordered steps, got %+v", got.Steps)
	}
	if got.Ingredients[0].Category != DefaultCategory {
		t.Errorf("Expected category %q, got %q", DefaultCategory, got.Ingredients[0].Category)
	}
	if got.NutritionFacts.Fiber != 3.5 {
		t.Errorf("Expected fiber 3.5, got %v", got.NutritionFacts.Fiber)
	}

	r.NutritionFacts.Fiber = nil
	if FromRecommendation(r).NutritionFacts.Fiber != 0 {
		t.Error("Expected missing fiber to default to 0")
	}
}

func TestApplyDaily(t *testing.T) {
	ctx := context.Background()
	meals := []recommendation.Recipe{{Name: "Oatmeal"}, {Name: "Salad"}, {Name: "Stew"}}

	t.Run("SavesAllInOrder", func(t *testing.T) {
		backend := &fakeBackend{}
		s := NewService(backend, nil)

		p := preferences.Defaults()
		p.CreatedAt = "2024-01-01"
		saved, err := s.ApplyDaily(ctx, meals, p)
		if err != nil {
			t.Fatalf("ApplyDaily failed: %v", err)
		}
		for i, r := range saved {
			if r.Name != meals[i].Name || r.ID == "" {
				t.Errorf("Expected %s with id at %d, got %+v", meals[i].Name, i, r)
			}
		}
		for _, sent := range backend.sentPrefs {
			if sent.CreatedAt != "" {
				t.Error("Expected timestamps stripped from saved preferences")
			}
		}
	})

	t.Run("AnyFailureFails", func(t *testing.T) {
		s := NewService(&fakeBackend{failName: "Salad"}, nil)
		if _, err := s.ApplyDaily(ctx, meals, preferences.Defaults()); err == nil {
			t.Error("Expected an error, got nil")
		}
	})

	t.Run("EmptyIsValidationError", func(t *testing.T) {
		s := NewService(&fakeBackend{}, nil)
		if _, err := s.ApplyDaily(ctx, nil, preferences.Defaults()); !common.IsValidationError(err) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}

func TestFavoritesCache(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(10, 0)
	defer store.Close()

	backend := &fakeBackend{favorites: []Recipe{{ID: "r-1", Name: "Stew"}}}
	s := NewService(backend, store)

	for i := 0; i < 2; i++ {
		favs, err := s.Favorites(ctx)
		if err != nil {
			t.Fatalf("Favorites failed: %v", err)
		}
		if len(favs) != 1 || favs[0].ID != "r-1" {
			t.Errorf("Expected [r-1], got %+v", favs)
		}
	}
	if backend.favoriteCalls != 1 {
		t.Errorf("Expected 1 remote call, got %d", backend.favoriteCalls)
	}

	if err := s.ToggleFavorite(ctx, "r-1"); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if _, err := s.Favorites(ctx); err != nil {
		t.Fatalf("Favorites failed: %v", err)
	}
	if backend.favoriteCalls != 2 {
		t.Errorf("Expected cache invalidated after toggle, got %d remote calls", backend.favoriteCalls)
	}
}

func TestRecipesNormalizesQuery(t *testing.T) {
	backend := &fakeBackend{recipes: map[string]Recipe{"r-1": {ID: "r-1", Name: "Stew"}}}
	s := NewService(backend, nil)

	got, err := s.Recipes(context.Background(), Query{Page: 0, Category: " soup ", Search: " tomato"})
	if err != nil {
		t.Fatalf("Recipes failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 recipe, got %d", len(got))
	}
	want := Query{Page: 1, Category: "soup", Search: "tomato"}
	if len(backend.queries) != 1 || backend.queries[0] != want {
		t.Errorf("Expected query %+v, got %+v", want, backend.queries)
	}
}

func TestRecipeMarksFavorite(t *testing.T) {
	ctx := context.Background()

	t.Run("Favorite", func(t *testing.T) {
		store := cache.NewMemoryStore(10, 0)
		defer store.Close()
		backend := &fakeBackend{
			recipes:   map[string]Recipe{"r-1": {ID: "r-1", Name: "Stew"}},
			favorites: []Recipe{{ID: "r-1", Name: "Stew"}},
		}
		s := NewService(backend, store)

		r, err := s.Recipe(ctx, "r-1")
		if err != nil {
			t.Fatalf("Recipe failed: %v", err)
		}
		if r.IsFavorite == nil || !*r.IsFavorite {
			t.Errorf("Expected is_favorite true, got %v", r.IsFavorite)
		}

		// 收藏清單已寫入快取
		if _, err := s.Favorites(ctx); err != nil {
			t.Fatalf("Favorites failed: %v", err)
		}
		if backend.favoriteCalls != 1 {
			t.Errorf("Expected favorites served from cache, got %d remote calls", backend.favoriteCalls)
		}
	})

	t.Run("NotFavorite", func(t *testing.T) {
		backend := &fakeBackend{recipes: map[string]Recipe{"r-2": {ID: "r-2", Name: "Salad"}}}
		s := NewService(backend, nil)

		r, err := s.Recipe(ctx, "r-2")
		if err != nil {
			t.Fatalf("Recipe failed: %v", err)
		}
		if r.IsFavorite == nil || *r.IsFavorite {
			t.Errorf("Expected is_favorite false, got %v", r.IsFavorite)
		}
	})

	t.Run("RecipeFailure", func(t *testing.T) {
		backend := &fakeBackend{getErr: common.NewNetworkError("failed to fetch recipe", 500, nil)}
		s := NewService(backend, nil)

		if _, err := s.Recipe(ctx, "r-1"); err == nil {
			t.Error("Expected an error, got nil")
		}
	})

	t.Run("EmptyID", func(t *testing.T) {
		s := NewService(&fakeBackend{}, nil)
		if _, err := s.Recipe(ctx, ""); !common.IsValidationError(err) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}
