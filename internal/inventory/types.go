package inventory

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cairn/internal/vars"
)

// Item is a named inventory entity (a host, a machine) with its own
// variables, tag memberships, and parent/child edges to other items.
// Relation slices hold entity names, sorted ascending; the parent set
// is the derived inverse of the child relation.
type Item struct {
	Name     string
	Vars     vars.Mapping
	Tags     []string
	Children []string
	Parents  []string
}

// Tag is a named grouping entity whose variables are inherited by its
// member items. Items is the derived back-reference set, sorted.
type Tag struct {
	Name  string
	Vars  vars.Mapping
	Items []string
}

// Ref is a wire reference to another entity by name, optionally with a
// resolvable location.
type Ref struct {
	Name string `json:"name"`
	Href string `json:"href,omitempty"`
}

// VarEntry is one effective variable with its provenance: Tag names the
// contributing tag, empty when the item's own variable won.
type VarEntry struct {
	Key   string     `json:"key"`
	Value vars.Value `json:"value"`
	Tag   string     `json:"tag,omitempty"`
	Href  string     `json:"href,omitempty"`
}

// UnmarshalJSON decodes a VarEntry, routing the value through the
// shape-preserving vars decoder.
func (e *VarEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
		Tag   string          `json:"tag"`
		Href  string          `json:"href"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Key == "" {
		return fmt.Errorf("variable entry without key")
	}
	e.Key = raw.Key
	e.Tag = raw.Tag
	e.Href = raw.Href
	if raw.Value == nil {
		e.Value = vars.Null{}
		return nil
	}
	val, err := vars.FromJSON(raw.Value)
	if err != nil {
		return err
	}
	e.Value = val
	return nil
}

// ItemView is the wire rendering of an item: variables as the sorted
// provenance list, relations as refs.
type ItemView struct {
	Name     string     `json:"name"`
	Vars     []VarEntry `json:"vars"`
	Tags     []Ref      `json:"tags"`
	Children []Ref      `json:"children"`
}

// TagView is the wire rendering of a tag: the plain variable mapping
// plus member refs.
type TagView struct {
	Name  string       `json:"name"`
	Vars  vars.Mapping `json:"vars"`
	Items []Ref        `json:"items"`
}

// NormalizeName canonicalizes an entity name to NFC so byte-distinct
// spellings of the same name cannot create duplicate entities.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}
