package dedup

import (
	"fmt"
	"sort"
	"time"
)

// MergePlan is the full set of mutations for one merge group: one canonical
// update and zero or more deletes. Recomputing the plan from the same inputs
// yields the same plan, so a partially applied plan self-heals on retry.
type MergePlan struct {
	CanonicalID     string
	SourceList      []string
	OccurrenceCount int
	DeleteIDs       []string
	DeduplicatedAt  time.Time
}

// PlanMerge picks the canonical representative of {pivot} ∪ group and
// computes the merged provenance fields. The earliest-published member wins;
// ties break on the lexicographically smallest id so repeated runs pick the
// same survivor. An empty group still yields a plan that marks the pivot
// itself processed.
func PlanMerge(pivot Article, group []Article, now time.Time) (MergePlan, error) {
	members := make([]Article, 0, len(group)+1)
	members = append(members, pivot)
	members = append(members, group...)

	if err := checkMergeSanity(members); err != nil {
		return MergePlan{}, err
	}

	sort.Slice(members, func(i, j int) bool {
		if !members[i].PublishedAt.Equal(members[j].PublishedAt) {
			return members[i].PublishedAt.Before(members[j].PublishedAt)
		}
		return members[i].ID < members[j].ID
	})
	canonical := members[0]

	sourceList := make([]string, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for _, member := range members {
		memberSources := member.SourceList
		if len(memberSources) == 0 {
			memberSources = []string{member.Source}
		}
		for _, source := range memberSources {
			if _, ok := seen[source]; ok {
				continue
			}
			seen[source] = struct{}{}
			sourceList = append(sourceList, source)
		}
	}

	deleteIDs := make([]string, 0, len(members)-1)
	for _, member := range members[1:] {
		deleteIDs = append(deleteIDs, member.ID)
	}

	return MergePlan{
		CanonicalID:     canonical.ID,
		SourceList:      sourceList,
		OccurrenceCount: len(sourceList),
		DeleteIDs:       deleteIDs,
		DeduplicatedAt:  now.UTC(),
	}, nil
}

// CanonicalUpdate renders the plan's canonical-record mutation.
func (p MergePlan) CanonicalUpdate() CanonicalUpdate {
	return CanonicalUpdate{
		SourceList:      p.SourceList,
		OccurrenceCount: p.OccurrenceCount,
		Processed:       true,
		ProcessedAt:     p.DeduplicatedAt,
		DeduplicatedAt:  p.DeduplicatedAt,
	}
}

// checkMergeSanity guards against inputs that indicate a non-story-level
// mismatch: duplicate or missing ids, or members embedded with different
// vector dimensions. Not expected in normal operation.
func checkMergeSanity(members []Article) error {
	ids := make(map[string]struct{}, len(members))
	dims := 0
	for _, member := range members {
		if member.ID == "" {
			return &ConflictError{Reason: "group member has empty id"}
		}
		if _, ok := ids[member.ID]; ok {
			return &ConflictError{Reason: fmt.Sprintf("duplicate member id %s", member.ID)}
		}
		ids[member.ID] = struct{}{}

		if len(member.Embedding) == 0 {
			continue
		}
		if dims == 0 {
			dims = len(member.Embedding)
			continue
		}
		if len(member.Embedding) != dims {
			return &ConflictError{
				Reason: fmt.Sprintf("member %s embedding dimension %d differs from %d", member.ID, len(member.Embedding), dims),
			}
		}
	}
	return nil
}
