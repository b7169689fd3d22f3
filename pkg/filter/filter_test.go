package filter

import (
	"testing"

	"github.com/cpunion/reddit-consensus/pkg/types"
)

func comment(id string, score int, replies ...*types.Comment) *types.Comment {
	return &types.Comment{ID: id, Score: score, Replies: replies}
}

// collect walks the forest and records every comment ID.
func collect(forest []*types.Comment, into map[string]*types.Comment) {
	for _, c := range forest {
		into[c.ID] = c
		collect(c.Replies, into)
	}
}

func TestThreshold_NearestRank(t *testing.T) {
	scores := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	got, ok := Threshold(scores, 80)
	if !ok {
		t.Fatal("expected a threshold for non-empty scores")
	}
	if got != 8 {
		t.Errorf("expected 80th percentile 8, got %d", got)
	}

	got, _ = Threshold(scores, 100)
	if got != 10 {
		t.Errorf("expected 100th percentile 10, got %d", got)
	}

	got, _ = Threshold([]int{-5, -2, 7}, 0)
	if got != -5 {
		t.Errorf("expected 0th percentile -5, got %d", got)
	}

	if _, ok := Threshold(nil, 80); ok {
		t.Error("expected no threshold for empty scores")
	}
}

func TestFilter_KeepsEveryCommentAtOrAboveThreshold(t *testing.T) {
	forest := []*types.Comment{
		comment("a", 50,
			comment("a1", 2),
			comment("a2", 40)),
		comment("b", 3),
		comment("c", 45),
	}

	filtered := FilterAt(forest, 40, Config{})

	kept := map[string]*types.Comment{}
	collect(filtered, kept)

	for _, id := range []string{"a", "a2", "c"} {
		if kept[id] == nil {
			t.Errorf("comment %s scores at or above threshold but was dropped", id)
		}
	}
	if kept["b"] != nil {
		t.Error("comment b is below threshold with no qualifying descendant, expected dropped")
	}
	if kept["a1"] != nil {
		t.Error("comment a1 is below threshold with no qualifying descendant, expected dropped")
	}
}

func TestFilter_AncestorPreservation(t *testing.T) {
	// A low-scoring chain leading to one high-value reply stays intact.
	forest := []*types.Comment{
		comment("root", 1,
			comment("mid", 0,
				comment("gem", 100))),
		comment("noise", 1,
			comment("more-noise", 2)),
	}

	filtered := FilterAt(forest, 50, Config{})

	kept := map[string]*types.Comment{}
	collect(filtered, kept)

	for _, id := range []string{"root", "mid", "gem"} {
		if kept[id] == nil {
			t.Errorf("expected %s kept on the path to a qualifying descendant", id)
		}
	}
	if kept["noise"] != nil || kept["more-noise"] != nil {
		t.Error("dropped subtree has no qualifying descendant, expected removed entirely")
	}

	// Structure preserved: gem still hangs under mid under root.
	if len(filtered) != 1 || len(filtered[0].Replies) != 1 || len(filtered[0].Replies[0].Replies) != 1 {
		t.Error("expected original parent/child structure to survive filtering")
	}
}

func TestFilter_DiscardedHasNoQualifyingDescendant(t *testing.T) {
	forest := []*types.Comment{
		comment("a", 10, comment("a1", 3, comment("a2", 9))),
		comment("b", 2, comment("b1", 11)),
	}

	filtered := FilterAt(forest, 10, Config{})

	kept := map[string]*types.Comment{}
	collect(filtered, kept)

	original := map[string]*types.Comment{}
	collect(forest, original)

	var check func(c *types.Comment) int
	check = func(c *types.Comment) int {
		max := c.Score
		for _, r := range c.Replies {
			if m := check(r); m > max {
				max = m
			}
		}
		return max
	}

	for id, c := range original {
		if kept[id] != nil {
			continue
		}
		if check(c) >= 10 {
			t.Errorf("discarded comment %s has a descendant at or above threshold", id)
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	forest := []*types.Comment{
		comment("a", 1, comment("a1", 9)),
		comment("b", 8),
		comment("c", 2),
	}

	once := FilterAt(forest, 8, Config{})
	twice := FilterAt(once, 8, Config{})

	first := map[string]*types.Comment{}
	second := map[string]*types.Comment{}
	collect(once, first)
	collect(twice, second)

	if len(first) != len(second) {
		t.Fatalf("expected idempotent filtering, got %d then %d comments", len(first), len(second))
	}
	for id := range first {
		if second[id] == nil {
			t.Errorf("comment %s lost on second pass", id)
		}
	}
}

func TestFilter_EmptyForest(t *testing.T) {
	if got := Filter(nil, Config{Percentile: 80}); len(got) != 0 {
		t.Errorf("expected empty output for empty forest, got %d comments", len(got))
	}
}

func TestFilter_DepthTruncation(t *testing.T) {
	forest := []*types.Comment{
		comment("a", 100,
			comment("a1", 100,
				comment("a2", 100,
					comment("a3", 100)))),
	}

	filtered := FilterAt(forest, 1, Config{MaxDepth: 2})

	kept := map[string]*types.Comment{}
	collect(filtered, kept)

	if kept["a"] == nil || kept["a1"] == nil {
		t.Error("expected comments within the depth cap to be kept")
	}
	if kept["a2"] != nil || kept["a3"] != nil {
		t.Error("expected subtrees beyond the depth cap truncated regardless of score")
	}
}

func TestFilter_SortByScoreReordersWithoutChangingMembership(t *testing.T) {
	forest := []*types.Comment{
		comment("low", 10),
		comment("high", 90),
		comment("mid", 50),
	}

	plain := FilterAt(forest, 10, Config{})
	sorted := FilterAt(forest, 10, Config{SortByScore: true})

	if len(plain) != 3 || len(sorted) != 3 {
		t.Fatalf("expected sorting to leave membership unchanged, got %d and %d", len(plain), len(sorted))
	}
	if sorted[0].ID != "high" || sorted[1].ID != "mid" || sorted[2].ID != "low" {
		t.Errorf("expected siblings ordered by descending score, got %s %s %s",
			sorted[0].ID, sorted[1].ID, sorted[2].ID)
	}
	// Original order untouched.
	if plain[0].ID != "low" {
		t.Error("expected unsorted filtering to preserve sibling order")
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	inner := comment("a1", 1)
	forest := []*types.Comment{comment("a", 99, inner)}

	_ = FilterAt(forest, 50, Config{SortByScore: true})

	if len(forest[0].Replies) != 1 || forest[0].Replies[0] != inner {
		t.Error("expected input forest to be left unmodified")
	}
	if inner.Depth != 0 {
		t.Error("expected input node depth untouched")
	}
}

func TestFilter_ComputesPercentileOverWholeForest(t *testing.T) {
	// Nine 1-score comments and one 100-score comment: the 80th
	// percentile is 1, so everything survives.
	forest := []*types.Comment{
		comment("top", 100),
	}
	for i := 0; i < 9; i++ {
		forest = append(forest, comment(string(rune('a'+i)), 1))
	}

	filtered := Filter(forest, Config{Percentile: 80})
	kept := map[string]*types.Comment{}
	collect(filtered, kept)
	if len(kept) != 10 {
		t.Errorf("expected all 10 comments kept at threshold 1, got %d", len(kept))
	}
}
