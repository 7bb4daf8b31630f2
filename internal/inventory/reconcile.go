package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/cairn/internal/vars"
)

// UpdateItem reconciles a stored item against a desired-state document
// and returns the item's wire view after the change. The whole call is
// one transaction: a failing step (for instance a dangling tag
// reference) rolls back every mutation and audit entry of the attempt.
func (e *Engine) UpdateItem(ctx context.Context, name string, doc ItemDoc) (ItemView, error) {
	name = NormalizeName(name)
	var view ItemView
	err := e.withOp(ctx, "update-item", func(o *op) error {
		li, err := loadItem(o.tx, name)
		if err != nil {
			return err
		}
		if err := e.reconcileItem(o, li, doc); err != nil {
			return err
		}
		// Reload so the view reflects the applied state.
		li, err = loadItem(o.tx, name)
		if err != nil {
			return err
		}
		view = e.itemView(li)
		return nil
	})
	if err != nil {
		return ItemView{}, err
	}
	return view, nil
}

// UpdateTag reconciles a stored tag against a desired-state document.
func (e *Engine) UpdateTag(ctx context.Context, name string, doc TagDoc) (TagView, error) {
	name = NormalizeName(name)
	var view TagView
	err := e.withOp(ctx, "update-tag", func(o *op) error {
		lt, err := loadTag(o.tx, name)
		if err != nil {
			return err
		}
		if err := e.reconcileTag(o, lt, doc); err != nil {
			return err
		}
		lt, err = loadTag(o.tx, name)
		if err != nil {
			return err
		}
		view = e.tagView(lt)
		return nil
	})
	if err != nil {
		return TagView{}, err
	}
	return view, nil
}

// ApplyItem creates the named item if it does not exist, then
// reconciles it against the document. Used by import-style callers that
// submit full documents without knowing what already exists.
func (e *Engine) ApplyItem(ctx context.Context, doc ItemDoc) (ItemView, error) {
	name := NormalizeName(doc.Name)
	if name == "" {
		return ItemView{}, NewValidationError("", "item document has no name")
	}
	if _, err := e.GetItem(ctx, name); IsNotFound(err) {
		if _, err := e.CreateItem(ctx, name); err != nil {
			return ItemView{}, err
		}
	} else if err != nil {
		return ItemView{}, err
	}
	return e.UpdateItem(ctx, name, doc)
}

// ApplyTag creates the named tag if it does not exist, then reconciles it.
func (e *Engine) ApplyTag(ctx context.Context, doc TagDoc) (TagView, error) {
	name := NormalizeName(doc.Name)
	if name == "" {
		return TagView{}, NewValidationError("", "tag document has no name")
	}
	if _, err := e.GetTag(ctx, name); IsNotFound(err) {
		if _, err := e.CreateTag(ctx, name); err != nil {
			return TagView{}, err
		}
	} else if err != nil {
		return TagView{}, err
	}
	return e.UpdateTag(ctx, name, doc)
}

func (e *Engine) reconcileItem(o *op, li *loadedItem, doc ItemDoc) error {
	if doc.Name != "" && NormalizeName(doc.Name) != li.item.Name {
		return NewValidationError(li.item.Name, "an item cannot be renamed")
	}

	if doc.HasTags {
		if err := e.reconcileItemTags(o, li, doc.Tags); err != nil {
			return err
		}
	}
	if doc.HasChildren {
		if err := e.reconcileItemChildren(o, li, doc.Children); err != nil {
			return err
		}
	}
	if doc.HasVars {
		if err := e.reconcileItemVars(o, li, doc.Vars); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) reconcileTag(o *op, lt *loadedTag, doc TagDoc) error {
	if doc.Name != "" && NormalizeName(doc.Name) != lt.tag.Name {
		return NewValidationError(lt.tag.Name, "a tag cannot be renamed")
	}

	if doc.HasItems {
		if err := e.reconcileTagItems(o, lt, doc.Items); err != nil {
			return err
		}
	}
	if doc.HasVars {
		if err := e.reconcileTagVars(o, lt, doc.Vars); err != nil {
			return err
		}
	}
	return nil
}

// diffNames computes the set differences between the current relation
// set and a desired ref list: toAdd = desired − current,
// toRemove = current − desired. Both results are sorted so the apply
// order is deterministic.
func diffNames(current []string, desired []Ref) (toAdd, toRemove []string) {
	currentSet := make(map[string]bool, len(current))
	for _, n := range current {
		currentSet[n] = true
	}
	desiredSet := make(map[string]bool, len(desired))
	for _, ref := range desired {
		desiredSet[NormalizeName(ref.Name)] = true
	}

	for n := range desiredSet {
		if !currentSet[n] {
			toAdd = append(toAdd, n)
		}
	}
	for _, n := range current {
		if !desiredSet[n] {
			toRemove = append(toRemove, n)
		}
	}
	sort.Strings(toAdd)
	sort.Strings(toRemove)
	return toAdd, toRemove
}

// reconcileItemTags brings the item's tag set to the desired set.
// Removals apply first; a desired tag that cannot be resolved fails the
// call with a Reference error (the transaction owner rolls back), while
// a vanished tag on the removal side is skipped, keeping the operation
// idempotent.
func (e *Engine) reconcileItemTags(o *op, li *loadedItem, desired []Ref) error {
	toAdd, toRemove := diffNames(li.item.Tags, desired)

	for _, name := range toRemove {
		row, ok, err := o.tx.FindTag(name)
		if err != nil {
			return err
		}
		if !ok {
			continue // already gone
		}
		removed, err := o.tx.RemoveItemTag(li.row.ID, row.ID)
		if err != nil {
			return err
		}
		if removed {
			if err := e.audit(o, li.item.Name, fmt.Sprintf("Tag %s removed", name)); err != nil {
				return err
			}
		}
	}

	for _, name := range toAdd {
		row, ok, err := o.tx.FindTag(name)
		if err != nil {
			return err
		}
		if !ok {
			return NewReferenceError("tag", name)
		}
		added, err := o.tx.AddItemTag(li.row.ID, row.ID)
		if err != nil {
			return err
		}
		if added {
			if err := e.audit(o, li.item.Name, fmt.Sprintf("Tag %s added", name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) reconcileItemChildren(o *op, li *loadedItem, desired []Ref) error {
	toAdd, toRemove := diffNames(li.item.Children, desired)

	for _, name := range toRemove {
		row, ok, err := o.tx.FindItem(name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		removed, err := o.tx.RemoveChild(li.row.ID, row.ID)
		if err != nil {
			return err
		}
		if removed {
			if err := e.audit(o, li.item.Name, fmt.Sprintf("Child %s removed", name)); err != nil {
				return err
			}
		}
	}

	for _, name := range toAdd {
		row, ok, err := o.tx.FindItem(name)
		if err != nil {
			return err
		}
		if !ok {
			return NewReferenceError("item", name)
		}
		added, err := o.tx.AddChild(li.row.ID, row.ID)
		if err != nil {
			return err
		}
		if added {
			if err := e.audit(o, li.item.Name, fmt.Sprintf("Child %s added", name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// reconcileTagItems reconciles a tag's member set. The relation is the
// same Item↔Tag edge; the audit entry for each add/remove lands on the
// member item, mirroring the item-side calls.
func (e *Engine) reconcileTagItems(o *op, lt *loadedTag, desired []Ref) error {
	toAdd, toRemove := diffNames(lt.tag.Items, desired)

	for _, name := range toRemove {
		row, ok, err := o.tx.FindItem(name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		removed, err := o.tx.RemoveItemTag(row.ID, lt.row.ID)
		if err != nil {
			return err
		}
		if removed {
			if err := e.audit(o, name, fmt.Sprintf("Tag %s removed", lt.tag.Name)); err != nil {
				return err
			}
		}
	}

	for _, name := range toAdd {
		row, ok, err := o.tx.FindItem(name)
		if err != nil {
			return err
		}
		if !ok {
			return NewReferenceError("item", name)
		}
		added, err := o.tx.AddItemTag(row.ID, lt.row.ID)
		if err != nil {
			return err
		}
		if added {
			if err := e.audit(o, name, fmt.Sprintf("Tag %s added", lt.tag.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// reconcileItemVars diffs the item's own variables against the desired
// mapping. The comparison is against everything visible to the item
// (own plus tag-merged), so a desired value that merely restates an
// inherited value creates no pointless own-variable override and no
// audit entry. Reapplying a document the item already satisfies writes
// nothing.
func (e *Engine) reconcileItemVars(o *op, li *loadedItem, desired vars.Mapping) error {
	current := li.item.Vars
	visible := Effective(li.item, li.tags)

	changed := false
	for _, key := range current.SortedKeys() {
		if _, ok := desired[key]; ok {
			continue
		}
		delete(current, key)
		changed = true
		if err := e.audit(o, li.item.Name, varRemovedMessage(key)); err != nil {
			return err
		}
	}

	for _, key := range desired.SortedKeys() {
		value := desired[key]
		visibleValue, inVisible := visible[key]
		currentValue, inCurrent := current[key]

		set := false
		switch {
		case !inVisible:
			// entirely new variable
			set = true
		case inCurrent:
			set = !vars.Equal(value, currentValue)
		default:
			// visible only via tag merge: differing value becomes an
			// own-variable override, equal value is left inherited
			set = !vars.Equal(value, visibleValue)
		}
		if !set {
			continue
		}
		current.Set(key, value)
		changed = true
		if err := e.audit(o, li.item.Name, varSetMessage(key, value)); err != nil {
			return err
		}
	}

	if !changed {
		return nil
	}
	return li.persistVars(o.tx)
}

// reconcileTagVars is the tag-side variable diff. Tags have no upstream
// merge, so the comparison is against their own mapping only.
func (e *Engine) reconcileTagVars(o *op, lt *loadedTag, desired vars.Mapping) error {
	current := lt.tag.Vars

	changed := false
	for _, key := range current.SortedKeys() {
		if _, ok := desired[key]; ok {
			continue
		}
		delete(current, key)
		changed = true
		if err := e.audit(o, lt.tag.Name, varRemovedMessage(key)); err != nil {
			return err
		}
	}

	for _, key := range desired.SortedKeys() {
		value := desired[key]
		currentValue, inCurrent := current[key]
		if inCurrent && vars.Equal(value, currentValue) {
			continue
		}
		current.Set(key, value)
		changed = true
		if err := e.audit(o, lt.tag.Name, varSetMessage(key, value)); err != nil {
			return err
		}
	}

	if !changed {
		return nil
	}
	return lt.persistVars(o.tx)
}
