package inventory

import (
	"sort"

	"github.com/roach88/cairn/internal/vars"
)

// sortTagsForMerge orders tags ascending by name length, ties broken by
// name. Later tags overwrite earlier ones during the merge, so the
// longer-named ("more specific") tag wins a key collision. Consumers
// depend on this exact order: a `production` tag variable must override
// a `servers` tag variable of the same key.
func sortTagsForMerge(tags []*Tag) []*Tag {
	sorted := make([]*Tag, len(tags))
	copy(sorted, tags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Name) != len(sorted[j].Name) {
			return len(sorted[i].Name) < len(sorted[j].Name)
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// Effective computes the item's effective variable mapping: every tag's
// variables overlaid in merge order, then the item's own variables last.
// An item's own variable always wins over any tag-derived value.
func Effective(item *Item, tags []*Tag) vars.Mapping {
	merged := vars.Mapping{}
	for _, tag := range sortTagsForMerge(tags) {
		for key, value := range tag.Vars {
			merged[key] = value
		}
	}
	for key, value := range item.Vars {
		merged[key] = value
	}
	return merged
}

// Provenance computes the effective variables together with the tag
// that contributed each surviving value. A key the item sets itself is
// reported with an empty Tag and the item's value alone, even when a
// tag defines the same key. Entries are sorted by key; no key appears
// twice.
func Provenance(item *Item, tags []*Tag) []VarEntry {
	byKey := map[string]VarEntry{}
	for _, tag := range sortTagsForMerge(tags) {
		for key, value := range tag.Vars {
			byKey[key] = VarEntry{Key: key, Value: value, Tag: tag.Name}
		}
	}
	for key, value := range item.Vars {
		byKey[key] = VarEntry{Key: key, Value: value}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]VarEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, byKey[key])
	}
	return entries
}
