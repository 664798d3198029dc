package mealplan

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"meal-companion/internal/core/recipe"
	"meal-companion/internal/pkg/common"
)

type listCall struct {
	start, end string
}

type fakeBackend struct {
	entries   []Entry
	listErr   error
	changeErr error

	lists    []listCall
	added    []AddRequest
	deleted  []string
	portions map[string]float64
}

func (f *fakeBackend) ListMealPlans(ctx context.Context, startDate, endDate string) ([]Entry, error) {
	f.lists = append(f.lists, listCall{startDate, endDate})
	return f.entries, f.listErr
}

func (f *fakeBackend) AddMeal(ctx context.Context, req AddRequest) error {
	if f.changeErr != nil {
		return f.changeErr
	}
	f.added = append(f.added, req)
	return nil
}

func (f *fakeBackend) DeleteMeal(ctx context.Context, id string) error {
	if f.changeErr != nil {
		return f.changeErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) UpdatePortions(ctx context.Context, id string, portions float64) error {
	if f.changeErr != nil {
		return f.changeErr
	}
	if f.portions == nil {
		f.portions = map[string]float64{}
	}
	f.portions[id] = portions
	return nil
}

var day = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func sampleEntries() []Entry {
	return []Entry{
		{ID: "m-1", MealType: Breakfast, Recipe: recipe.Recipe{ID: "r-1", Name: "Oatmeal"}, Portions: 1},
		{ID: "m-2", MealType: Snack, Recipe: recipe.Recipe{ID: "r-2", Name: "Apple"}, Portions: 2},
		{ID: "m-3", MealType: "brunch", Recipe: recipe.Recipe{ID: "r-3", Name: "Waffle"}, Portions: 1},
	}
}

func TestFetchDay(t *testing.T) {
	ctx := context.Background()

	t.Run("GroupsByMealType", func(t *testing.T) {
		backend := &fakeBackend{entries: sampleEntries()}
		s := NewStore(backend)

		if err := s.FetchDay(ctx, day); err != nil {
			t.Fatalf("FetchDay failed: %v", err)
		}
		if len(backend.lists) != 1 {
			t.Fatalf("Expected 1 request, got %d", len(backend.lists))
		}
		want := listCall{"2024-05-01T00:00:00.000Z", "2024-05-01T23:59:59.999Z"}
		if backend.lists[0] != want {
			t.Errorf("Expected range %+v, got %+v", want, backend.lists[0])
		}

		st := s.State()
		if st.Date != "2024-05-01" {
			t.Errorf("Expected date 2024-05-01, got %q", st.Date)
		}
		for _, m := range MealTypes {
			if st.Plan[m] == nil {
				t.Errorf("Expected %s present as an empty list", m)
			}
		}
		if len(st.Plan[Breakfast]) != 1 || len(st.Plan[Snack]) != 1 || len(st.Plan[Lunch]) != 0 {
			t.Errorf("Unexpected grouping: %+v", st.Plan)
		}
		if _, ok := st.Plan["brunch"]; ok {
			t.Error("Expected unknown meal type skipped")
		}
	})

	t.Run("NotFoundIsEmptyDay", func(t *testing.T) {
		backend := &fakeBackend{listErr: common.NewNetworkError("not found", http.StatusNotFound, nil)}
		s := NewStore(backend)

		if err := s.FetchDay(ctx, day); err != nil {
			t.Fatalf("Expected no error for 404, got %v", err)
		}
		st := s.State()
		if st.Plan != nil || st.Error != "" || st.Loading {
			t.Errorf("Expected empty state, got %+v", st)
		}
	})

	t.Run("FailureSetsError", func(t *testing.T) {
		backend := &fakeBackend{listErr: common.NewNetworkError("failed to fetch meal plan", http.StatusInternalServerError, nil)}
		s := NewStore(backend)

		if err := s.FetchDay(ctx, day); err == nil {
			t.Fatal("Expected an error, got nil")
		}
		if got := s.State().Error; got != "failed to fetch meal plan" {
			t.Errorf("Expected error message, got %q", got)
		}
	})

	t.Run("AuthMissingLeavesErrorEmpty", func(t *testing.T) {
		s := NewStore(&fakeBackend{listErr: common.ErrAuthMissing})
		if err := s.FetchDay(ctx, day); !errors.Is(err, common.ErrAuthMissing) {
			t.Fatalf("Expected ErrAuthMissing, got %v", err)
		}
		if got := s.State().Error; got != "" {
			t.Errorf("Expected no error message, got %q", got)
		}
	})
}

func TestAddMeal(t *testing.T) {
	ctx := context.Background()

	t.Run("PostsAndReloads", func(t *testing.T) {
		backend := &fakeBackend{entries: sampleEntries()}
		s := NewStore(backend)

		if err := s.AddMeal(ctx, day, Lunch, " r-9 "); err != nil {
			t.Fatalf("AddMeal failed: %v", err)
		}
		want := AddRequest{Date: "2024-05-01T12:00:00Z", MealType: Lunch, RecipeID: "r-9"}
		if len(backend.added) != 1 || backend.added[0] != want {
			t.Errorf("Expected %+v, got %+v", want, backend.added)
		}
		if len(backend.lists) != 1 {
			t.Errorf("Expected day reloaded, got %d list calls", len(backend.lists))
		}
	})

	t.Run("Validation", func(t *testing.T) {
		backend := &fakeBackend{}
		s := NewStore(backend)

		if err := s.AddMeal(ctx, day, "brunch", "r-1"); !common.IsValidationError(err) {
			t.Errorf("Expected validation error for meal type, got %v", err)
		}
		if err := s.AddMeal(ctx, day, Dinner, ""); !common.IsValidationError(err) {
			t.Errorf("Expected validation error for recipe id, got %v", err)
		}
		if len(backend.added) != 0 {
			t.Errorf("Expected no remote call, got %d", len(backend.added))
		}
	})

	t.Run("FailureSkipsReload", func(t *testing.T) {
		backend := &fakeBackend{changeErr: common.NewNetworkError("failed to add meal", http.StatusBadRequest, nil)}
		s := NewStore(backend)

		if err := s.AddMeal(ctx, day, Dinner, "r-1"); err == nil {
			t.Fatal("Expected an error, got nil")
		}
		st := s.State()
		if st.Loading || st.Error != "failed to add meal" {
			t.Errorf("Expected error state, got %+v", st)
		}
		if len(backend.lists) != 0 {
			t.Errorf("Expected no reload, got %d", len(backend.lists))
		}
	})
}

func TestChangeReloadsOnlyLoadedPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("DeleteWithoutPlan", func(t *testing.T) {
		backend := &fakeBackend{}
		s := NewStore(backend)

		if err := s.DeleteMeal(ctx, "m-1", day); err != nil {
			t.Fatalf("DeleteMeal failed: %v", err)
		}
		if len(backend.deleted) != 1 || len(backend.lists) != 0 {
			t.Errorf("Expected delete without reload, got deleted=%v lists=%d", backend.deleted, len(backend.lists))
		}
		if s.State().Loading {
			t.Error("Expected loading cleared")
		}
	})

	t.Run("UpdatePortionsWithPlan", func(t *testing.T) {
		backend := &fakeBackend{entries: sampleEntries()}
		s := NewStore(backend)
		if err := s.FetchDay(ctx, day); err != nil {
			t.Fatalf("FetchDay failed: %v", err)
		}

		if err := s.UpdatePortions(ctx, "m-2", 1.5, day); err != nil {
			t.Fatalf("UpdatePortions failed: %v", err)
		}
		if backend.portions["m-2"] != 1.5 {
			t.Errorf("Expected portions 1.5, got %v", backend.portions["m-2"])
		}
		if len(backend.lists) != 2 {
			t.Errorf("Expected plan reloaded, got %d list calls", len(backend.lists))
		}
	})

	t.Run("NonPositivePortions", func(t *testing.T) {
		backend := &fakeBackend{}
		s := NewStore(backend)
		if err := s.UpdatePortions(ctx, "m-1", 0, day); !common.IsValidationError(err) {
			t.Errorf("Expected validation error, got %v", err)
		}
		if len(backend.portions) != 0 {
			t.Error("Expected no remote call")
		}
	})
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)

	got, err := ParseDate("", now)
	if err != nil || got.Format(DateLayout) != "2024-05-01" || got.Hour() != 0 {
		t.Errorf("Expected today at midnight, got %v (%v)", got, err)
	}
	if _, err := ParseDate("05/01/2024", now); err == nil {
		t.Error("Expected invalid date error")
	}
}
