package matcher

import "testing"

func TestMerchantIndexIdenticalNames(t *testing.T) {
	index := NewMerchantIndex([]string{"uber eats", "whole foods"})

	if d := index.Distance("uber eats", "uber eats"); d != 0 {
		t.Errorf("identical names should have distance 0, got %f", d)
	}
}

func TestMerchantIndexNearNeighbor(t *testing.T) {
	index := NewMerchantIndex([]string{"starbucks", "whole foods"})

	// A near-miss shares most trigrams
	if !index.IsNearNeighbor("whole food", "whole foods", 0.45) {
		t.Errorf("near-miss should be a near neighbor, distance %f",
			index.Distance("whole food", "whole foods"))
	}

	// Unrelated names share essentially nothing
	if index.IsNearNeighbor("nike store", "starbucks", 0.45) {
		t.Errorf("unrelated names should not be neighbors, distance %f",
			index.Distance("nike store", "starbucks"))
	}
}

func TestMerchantIndexMissingAndEmpty(t *testing.T) {
	index := NewMerchantIndex([]string{"starbucks", ""})

	if d := index.Distance("starbucks", "never indexed"); d != 1.0 {
		t.Errorf("unindexed name should be maximally distant, got %f", d)
	}
	if d := index.Distance("", "starbucks"); d != 1.0 {
		t.Errorf("empty query should be maximally distant, got %f", d)
	}
	if index.Size() != 1 {
		t.Errorf("empty names must not be indexed, size = %d", index.Size())
	}
}

func TestMerchantIndexNeighbors(t *testing.T) {
	index := NewMerchantIndex([]string{"blue bottle", "blue bottel", "nike"})

	neighbors := index.Neighbors("blue bottle", 0.45)
	if len(neighbors) != 2 {
		t.Fatalf("got %d neighbors %v, want 2", len(neighbors), neighbors)
	}
	for _, n := range neighbors {
		if n != "blue bottle" && n != "blue bottel" {
			t.Errorf("unexpected neighbor %q", n)
		}
	}
}

func TestTrigramsShortStrings(t *testing.T) {
	set := trigrams("a")
	if len(set) != 1 {
		t.Fatalf("single-character string should yield one gram, got %d", len(set))
	}
	if _, ok := set[" a "]; !ok {
		t.Errorf("expected the padded character as the single gram, got %v", set)
	}

	if len(trigrams("")) != 0 {
		t.Error("empty string should yield no grams")
	}
}
