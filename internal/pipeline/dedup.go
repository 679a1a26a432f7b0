package pipeline

import "newswatch/internal/domain"

// URLSet is the membership index over already-stored rows.
type URLSet map[string]struct{}

// CollectURLs builds the membership set from the current working set.
func CollectURLs(rows []domain.Row) URLSet {
	set := make(URLSet, len(rows))
	for _, row := range rows {
		if row.URL != "" {
			set[row.URL] = struct{}{}
		}
	}
	return set
}

// FilterNew returns the candidates whose URL is not yet in the store,
// preserving discovery order and collapsing duplicates within the batch
// itself. It never mutates existing rows; URL is the only identity key.
func FilterNew(candidates []domain.Listing, existing URLSet) []domain.Listing {
	seen := make(URLSet, len(candidates))
	fresh := make([]domain.Listing, 0, len(candidates))

	for _, candidate := range candidates {
		if candidate.URL == "" {
			continue
		}
		if _, ok := existing[candidate.URL]; ok {
			continue
		}
		if _, ok := seen[candidate.URL]; ok {
			continue
		}
		seen[candidate.URL] = struct{}{}
		fresh = append(fresh, candidate)
	}

	return fresh
}
