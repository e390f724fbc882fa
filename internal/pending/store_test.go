package pending

import (
	"fmt"
	"sync"
	"testing"

	"nutrition-bot/internal/models"
)

const userID int64 = 42

func analysis(calories float64, items ...string) models.FoodAnalysis {
	return models.FoodAnalysis{
		IsFood:    true,
		FoodItems: items,
		Nutrition: models.Nutrition{Calories: calories},
	}
}

func TestStageAndGet(t *testing.T) {
	store := NewStore()

	id := store.Stage(userID, analysis(500, "chicken", "rice"))
	if id == "" {
		t.Fatal("empty id")
	}

	entry, ok := store.Get(userID, id)
	if !ok {
		t.Fatal("staged entry not found")
	}
	if entry.Description != "chicken, rice" {
		t.Errorf("Description = %q", entry.Description)
	}
	if entry.Analysis.Nutrition.Calories != 500 {
		t.Errorf("Calories = %v", entry.Analysis.Nutrition.Calories)
	}

	if _, ok := store.Get(userID, "no-such-id"); ok {
		t.Error("Get returned an entry for an unknown id")
	}
	if _, ok := store.Get(99, id); ok {
		t.Error("Get returned an entry for the wrong user")
	}
}

func TestMultiplePendingEntriesCoexist(t *testing.T) {
	store := NewStore()

	first := store.Stage(userID, analysis(300, "salad"))
	second := store.Stage(userID, analysis(700, "burger"))

	if first == second {
		t.Fatal("ids collide")
	}

	a, _ := store.Get(userID, first)
	b, _ := store.Get(userID, second)
	if a.Analysis.Nutrition.Calories != 300 || b.Analysis.Nutrition.Calories != 700 {
		t.Errorf("entries corrupted: %v, %v", a.Analysis.Nutrition.Calories, b.Analysis.Nutrition.Calories)
	}
}

func TestReplaceKeepsIDAndSwapsPayload(t *testing.T) {
	store := NewStore()

	id := store.Stage(userID, analysis(300, "salad"))
	if !store.Replace(userID, id, analysis(450, "large salad")) {
		t.Fatal("Replace returned false for a live entry")
	}

	entry, _ := store.Get(userID, id)
	if entry.Analysis.Nutrition.Calories != 450 {
		t.Errorf("Calories = %v, want 450", entry.Analysis.Nutrition.Calories)
	}
	if entry.Description != "large salad" {
		t.Errorf("Description = %q", entry.Description)
	}

	if store.Replace(userID, "gone", analysis(1, "x")) {
		t.Error("Replace returned true for a missing entry")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := NewStore()

	id := store.Stage(userID, analysis(300, "salad"))

	entry, ok := store.Remove(userID, id)
	if !ok || entry == nil {
		t.Fatal("first Remove failed")
	}

	if _, ok := store.Remove(userID, id); ok {
		t.Error("second Remove succeeded, want no-op")
	}
	if _, ok := store.Get(userID, id); ok {
		t.Error("entry still present after Remove")
	}
}

func TestRemoveAll(t *testing.T) {
	store := NewStore()

	a := store.Stage(userID, analysis(1, "a"))
	b := store.Stage(userID, analysis(2, "b"))
	store.RemoveAll(userID)

	if _, ok := store.Get(userID, a); ok {
		t.Error("entry a survived RemoveAll")
	}
	if _, ok := store.Get(userID, b); ok {
		t.Error("entry b survived RemoveAll")
	}
}

func TestConcurrentStagingDoesNotCorrupt(t *testing.T) {
	store := NewStore()

	const n = 100
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = store.Stage(userID, analysis(float64(i), fmt.Sprintf("meal-%d", i)))
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true

		entry, ok := store.Get(userID, id)
		if !ok {
			t.Fatalf("entry %d missing", i)
		}
		if entry.Analysis.Nutrition.Calories != float64(i) {
			t.Errorf("entry %d payload = %v", i, entry.Analysis.Nutrition.Calories)
		}
	}
}
