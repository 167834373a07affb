package news

import "strings"

// MergeResult is the outcome of reconciling a fetched batch with the archive.
type MergeResult struct {
	// Merged is the archived articles followed by the new ones.
	Merged []Article
	// New holds fetched articles whose link was not already archived, in
	// fetch order. These are the rows to append to the archive.
	New []Article
}

// Merge combines archived and fetched articles keyed by link. Fetched
// articles with an empty link cannot be keyed and are skipped; a link
// repeated within fetched is kept once.
func Merge(archived, fetched []Article) MergeResult {
	seen := make(map[string]struct{}, len(archived)+len(fetched))
	for _, a := range archived {
		seen[strings.TrimSpace(a.Link)] = struct{}{}
	}

	var fresh []Article
	for _, a := range fetched {
		link := strings.TrimSpace(a.Link)
		if link == "" {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		fresh = append(fresh, a)
	}

	merged := make([]Article, 0, len(archived)+len(fresh))
	merged = append(merged, archived...)
	merged = append(merged, fresh...)
	return MergeResult{Merged: merged, New: fresh}
}
