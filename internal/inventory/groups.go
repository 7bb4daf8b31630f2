package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/cairn/internal/store"
	"github.com/roach88/cairn/internal/vars"
)

// InventoryOptions controls the aggregation view.
type InventoryOptions struct {
	// AllowTags restricts the output to items reachable from the named
	// tags. Empty means every item is allowed. Groups whose members are
	// all filtered out stay present with an empty member list.
	AllowTags []string
}

// InventoryDoc is the grouping of items by tag consumed by
// orchestration tooling: one group per tag plus the reserved _meta
// group carrying each item's effective variables.
type InventoryDoc struct {
	Groups   map[string][]string
	HostVars map[string]vars.Mapping
}

// MarshalJSON renders the document with sorted group names, sorted
// member lists, and _meta.hostvars last in iteration-independent form.
func (d InventoryDoc) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(d.Groups))
	for name := range d.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		nb, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(nb)
		buf.WriteByte(':')
		hosts := d.Groups[name]
		if hosts == nil {
			hosts = []string{}
		}
		hb, err := json.Marshal(hosts)
		if err != nil {
			return nil, err
		}
		buf.Write(hb)
	}

	if len(names) > 0 {
		buf.WriteByte(',')
	}
	buf.WriteString(`"_meta":{"hostvars":`)

	hostNames := make([]string, 0, len(d.HostVars))
	for name := range d.HostVars {
		hostNames = append(hostNames, name)
	}
	sort.Strings(hostNames)

	buf.WriteByte('{')
	for i, name := range hostNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		nb, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(nb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.HostVars[name])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteString("}}}")
	return buf.Bytes(), nil
}

// aliasesKey is the tag variable that duplicates a group's member list
// under additional names in the aggregation output.
const aliasesKey = "aliases"

// Inventory builds the aggregation view: every tag becomes a group of
// its member item names, a tag's `aliases` variable duplicates that
// group under each alias, and _meta.hostvars maps each visible item to
// its effective variables.
func (e *Engine) Inventory(ctx context.Context, opts InventoryOptions) (InventoryDoc, error) {
	doc := InventoryDoc{
		Groups:   map[string][]string{},
		HostVars: map[string]vars.Mapping{},
	}

	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		tagRows, err := tx.ListTags()
		if err != nil {
			return err
		}

		members := make(map[string][]string, len(tagRows))
		tagVars := make(map[string]vars.Mapping, len(tagRows))
		for _, row := range tagRows {
			itemRows, err := tx.TagItems(row.ID)
			if err != nil {
				return err
			}
			members[row.Name] = rowNames(itemRows)
			mapping, err := vars.ParseBlob(row.Properties)
			if err != nil {
				return fmt.Errorf("tag %q: %w", row.Name, err)
			}
			tagVars[row.Name] = mapping
		}

		allowed := allowedHosts(members, opts.AllowTags)

		for name, hosts := range members {
			group := make([]string, 0, len(hosts))
			for _, host := range hosts {
				if allowed == nil || allowed[host] {
					group = append(group, host)
				}
			}
			sort.Strings(group)
			doc.Groups[name] = group
			for _, alias := range groupAliases(tagVars[name]) {
				doc.Groups[alias] = group
			}
		}

		itemRows, err := tx.ListItems()
		if err != nil {
			return err
		}
		for _, row := range itemRows {
			if allowed != nil && !allowed[row.Name] {
				continue
			}
			li, err := hydrateItem(tx, row)
			if err != nil {
				return err
			}
			doc.HostVars[row.Name] = Effective(li.item, li.tags)
		}
		return nil
	})
	if err != nil {
		return InventoryDoc{}, err
	}
	return doc, nil
}

// allowedHosts returns the set of items reachable from the allow-listed
// tags, or nil when no allow-list is configured.
func allowedHosts(members map[string][]string, allowTags []string) map[string]bool {
	if len(allowTags) == 0 {
		return nil
	}
	allowed := map[string]bool{}
	for _, tag := range allowTags {
		for _, host := range members[NormalizeName(tag)] {
			allowed[host] = true
		}
	}
	return allowed
}

// groupAliases extracts the string entries of a tag's aliases variable.
// Non-list shapes and non-string entries are ignored.
func groupAliases(mapping vars.Mapping) []string {
	raw, ok := mapping[aliasesKey]
	if !ok {
		return nil
	}
	list, ok := raw.(vars.List)
	if !ok {
		return nil
	}
	var aliases []string
	for _, elem := range list {
		if s, ok := elem.(vars.String); ok {
			aliases = append(aliases, string(s))
		}
	}
	return aliases
}
