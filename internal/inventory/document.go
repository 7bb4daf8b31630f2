package inventory

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/cairn/internal/vars"
)

// ItemDoc is a client-submitted desired state for an item. Sections
// left out of the submitted JSON are not reconciled at all, so each
// carries a presence flag.
type ItemDoc struct {
	Name string

	Vars    vars.Mapping
	HasVars bool

	Tags    []Ref
	HasTags bool

	Children    []Ref
	HasChildren bool
}

// TagDoc is a client-submitted desired state for a tag.
type TagDoc struct {
	Name string

	Vars    vars.Mapping
	HasVars bool

	Items    []Ref
	HasItems bool
}

// UnmarshalJSON decodes an item document. The vars section accepts
// either a flat key→value object or the legacy list of
// {key, value[, tag, href]} records.
func (d *ItemDoc) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode item document: %w", err)
	}

	if nameRaw, ok := raw["name"]; ok {
		if err := json.Unmarshal(nameRaw, &d.Name); err != nil {
			return fmt.Errorf("decode item document name: %w", err)
		}
	}

	if varsRaw, ok := raw["vars"]; ok {
		mapping, err := normalizeDocVars(varsRaw)
		if err != nil {
			return fmt.Errorf("decode item document vars: %w", err)
		}
		d.Vars = mapping
		d.HasVars = true
	}

	if tagsRaw, ok := raw["tags"]; ok {
		if err := json.Unmarshal(tagsRaw, &d.Tags); err != nil {
			return fmt.Errorf("decode item document tags: %w", err)
		}
		d.HasTags = true
	}

	if childrenRaw, ok := raw["children"]; ok {
		if err := json.Unmarshal(childrenRaw, &d.Children); err != nil {
			return fmt.Errorf("decode item document children: %w", err)
		}
		d.HasChildren = true
	}

	return nil
}

// UnmarshalJSON decodes a tag document, with the same dual vars form
// as item documents.
func (d *TagDoc) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode tag document: %w", err)
	}

	if nameRaw, ok := raw["name"]; ok {
		if err := json.Unmarshal(nameRaw, &d.Name); err != nil {
			return fmt.Errorf("decode tag document name: %w", err)
		}
	}

	if varsRaw, ok := raw["vars"]; ok {
		mapping, err := normalizeDocVars(varsRaw)
		if err != nil {
			return fmt.Errorf("decode tag document vars: %w", err)
		}
		d.Vars = mapping
		d.HasVars = true
	}

	if itemsRaw, ok := raw["items"]; ok {
		if err := json.Unmarshal(itemsRaw, &d.Items); err != nil {
			return fmt.Errorf("decode tag document items: %w", err)
		}
		d.HasItems = true
	}

	return nil
}

// normalizeDocVars turns either vars wire shape into one mapping.
//
// For the legacy list form, records that carry tag provenance are
// echoes of inherited values; when the same key also appears without
// provenance (the item's own override) the own record is kept. Among
// records of the same class, the last one wins.
func normalizeDocVars(raw json.RawMessage) (vars.Mapping, error) {
	trimmed := firstNonSpace(raw)
	switch trimmed {
	case '{':
		var mapping vars.Mapping
		if err := json.Unmarshal(raw, &mapping); err != nil {
			return nil, err
		}
		return mapping, nil
	case '[':
		var entries []VarEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, err
		}
		mapping := make(vars.Mapping, len(entries))
		fromOwn := make(map[string]bool, len(entries))
		for _, entry := range entries {
			if entry.Tag != "" {
				if !fromOwn[entry.Key] {
					mapping[entry.Key] = entry.Value
				}
				continue
			}
			mapping[entry.Key] = entry.Value
			fromOwn[entry.Key] = true
		}
		return mapping, nil
	default:
		return nil, fmt.Errorf("vars must be an object or a list of entries")
	}
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
