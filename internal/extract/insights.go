package extract

import (
	"fmt"
	"sort"
	"strings"
)

// topTargetCount caps the "Most discussed" line.
const topTargetCount = 3

// Synthesize renders human-readable summary lines. Lines appear in a fixed
// order and only when their source data is non-empty.
func Synthesize(entities []Entity, rels []Relationship) []string {
	var insights []string

	if len(entities) > 0 {
		var order []EntityType
		counts := map[EntityType]int{}
		for _, e := range entities {
			if _, ok := counts[e.Type]; !ok {
				order = append(order, e.Type)
			}
			counts[e.Type]++
		}
		parts := make([]string, len(order))
		for i, t := range order {
			parts[i] = fmt.Sprintf("%d %s(s)", counts[t], t)
		}
		insights = append(insights, fmt.Sprintf("Extracted %d entities: %s", len(entities), strings.Join(parts, ", ")))
	}

	if top := topTargets(rels, topTargetCount); len(top) > 0 {
		parts := make([]string, len(top))
		for i, tc := range top {
			parts[i] = fmt.Sprintf("%s (%d mentions)", tc.target, tc.count)
		}
		insights = append(insights, "Most discussed: "+strings.Join(parts, ", "))
	}

	if likes := targetsOfType(rels, RelLikes); len(likes) > 0 {
		insights = append(insights, "User likes: "+strings.Join(likes, ", "))
	}
	if dislikes := targetsOfType(rels, RelDislikes); len(dislikes) > 0 {
		insights = append(insights, "User dislikes: "+strings.Join(dislikes, ", "))
	}
	if people := textsOfType(entities, EntityPerson); len(people) > 0 {
		insights = append(insights, "People mentioned: "+strings.Join(people, ", "))
	}
	if topics := textsOfType(entities, EntityTopic); len(topics) > 0 {
		insights = append(insights, "Topics discussed: "+strings.Join(topics, ", "))
	}

	return insights
}

type targetCount struct {
	target string
	count  int
}

// topTargets ranks relationship targets by incoming count. Ties keep first
// encounter order.
func topTargets(rels []Relationship, limit int) []targetCount {
	var ranked []targetCount
	index := map[string]int{}
	for _, r := range rels {
		if i, ok := index[r.To]; ok {
			ranked[i].count++
			continue
		}
		index[r.To] = len(ranked)
		ranked = append(ranked, targetCount{target: r.To, count: 1})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func targetsOfType(rels []Relationship, t RelationType) []string {
	var out []string
	for _, r := range rels {
		if r.Type == t {
			out = append(out, r.To)
		}
	}
	return out
}

func textsOfType(entities []Entity, t EntityType) []string {
	var out []string
	for _, e := range entities {
		if e.Type == t {
			out = append(out, e.Text)
		}
	}
	return out
}
