// Package filter prunes a post's comment forest down to the comments
// likely to carry community-validated signal. The threshold is the P-th
// percentile of every score under the post, recomputed per post. A
// low-scoring comment survives when some descendant qualifies, so the
// conversational path to a high-value reply stays intact.
package filter

import (
	"math"
	"sort"

	"github.com/cpunion/reddit-consensus/pkg/types"
)

// Config controls one filtering pass.
type Config struct {
	// Percentile of all comment scores used as the keep threshold.
	Percentile float64

	// MaxDepth truncates subtrees below this depth regardless of score.
	// Zero or negative means no depth cap.
	MaxDepth int

	// SortByScore reorders siblings by descending score. Membership is
	// unaffected.
	SortByScore bool
}

// Threshold computes the nearest-rank p-th percentile of scores. The
// second return is false when scores is empty, in which case no
// threshold applies.
func Threshold(scores []int, p float64) (int, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	sorted := make([]int, len(scores))
	copy(sorted, scores)
	sort.Ints(sorted)

	rank := int(math.Ceil(float64(len(sorted))*p/100.0)) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank], true
}

// Filter computes the percentile threshold over the whole forest and
// prunes it. The input is never mutated; kept comments are copied with
// their original parent/child structure. An empty forest filters to an
// empty forest.
func Filter(forest []*types.Comment, cfg Config) []*types.Comment {
	scores := collectScores(forest, nil)
	threshold, ok := Threshold(scores, cfg.Percentile)
	if !ok {
		return nil
	}
	return FilterAt(forest, threshold, cfg)
}

// FilterAt prunes the forest at an explicit threshold. A comment is kept
// when its own score meets the threshold (inclusive) or any descendant
// at any depth does. Discarded subtrees with no qualifying descendant
// are dropped entirely.
func FilterAt(forest []*types.Comment, threshold int, cfg Config) []*types.Comment {
	maxes := make(map[*types.Comment]int)
	for _, c := range forest {
		if c != nil {
			recordSubtreeMax(c, maxes)
		}
	}
	return filterLevel(forest, threshold, 0, cfg, maxes)
}

func filterLevel(siblings []*types.Comment, threshold, depth int, cfg Config, maxes map[*types.Comment]int) []*types.Comment {
	if cfg.MaxDepth > 0 && depth >= cfg.MaxDepth {
		return nil
	}

	var kept []*types.Comment
	for _, c := range siblings {
		if c == nil {
			continue
		}
		if maxes[c] < threshold {
			continue
		}
		copied := *c
		copied.Depth = depth
		copied.Replies = filterLevel(c.Replies, threshold, depth+1, cfg, maxes)
		kept = append(kept, &copied)
	}

	if cfg.SortByScore {
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Score > kept[j].Score
		})
	}
	return kept
}

// recordSubtreeMax fills maxes with the maximum score of each subtree,
// bottom-up, so the keep decision never rescans descendants per node.
func recordSubtreeMax(c *types.Comment, maxes map[*types.Comment]int) int {
	max := c.Score
	for _, r := range c.Replies {
		if r == nil {
			continue
		}
		if m := recordSubtreeMax(r, maxes); m > max {
			max = m
		}
	}
	maxes[c] = max
	return max
}

func collectScores(forest []*types.Comment, acc []int) []int {
	for _, c := range forest {
		if c == nil {
			continue
		}
		acc = append(acc, c.Score)
		acc = collectScores(c.Replies, acc)
	}
	return acc
}
