package extract

import "strings"

// entityKey identifies an entity for deduplication: type plus lowercased text.
func entityKey(e Entity) string {
	return string(e.Type) + ":" + strings.ToLower(e.Text)
}

// relationshipKey identifies a relationship: from, type, to exactly as produced.
func relationshipKey(r Relationship) string {
	return r.From + ":" + string(r.Type) + ":" + r.To
}

// dedupeBy keeps one item per key, replacing the stored item only when the
// newcomer scores strictly higher. Output follows first-seen key order.
func dedupeBy[T any](items []T, key func(T) string, score func(T) float64) []T {
	if len(items) == 0 {
		return nil
	}
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, item)
			continue
		}
		if score(item) > score(out[i]) {
			out[i] = item
		}
	}
	return out
}

// DedupeEntities collapses repeated entity observations, keeping the most
// confident one per (type, lowercase text).
func DedupeEntities(entities []Entity) []Entity {
	return dedupeBy(entities, entityKey, func(e Entity) float64 { return e.Confidence })
}

// DedupeRelationships collapses repeated relationships, keeping the strongest
// one per (from, type, to).
func DedupeRelationships(rels []Relationship) []Relationship {
	return dedupeBy(rels, relationshipKey, func(r Relationship) float64 { return r.Strength })
}
