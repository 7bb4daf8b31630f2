package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roach88/cairn/internal/store"
	"github.com/roach88/cairn/internal/vars"
)

// Config carries the engine's collaborators. The engine owns none of
// them: the store connection lifecycle, log sink, and clock belong to
// the caller (process init/teardown at the boundary).
type Config struct {
	// Store is the backing transactional store. Required.
	Store *store.Store

	// Logger receives operational breadcrumbs. Distinct from the audit
	// log, which lives in the store.
	Logger zerolog.Logger

	// Now supplies timestamps for audit entries. Defaults to time.Now.
	// Injectable for deterministic tests.
	Now func() time.Time

	// ItemHref and TagHref build wire hrefs for rendered documents.
	// Nil leaves hrefs empty.
	ItemHref func(name string) string
	TagHref  func(name string) string
}

// Engine implements the variable resolution and relationship
// reconciliation operations over the inventory graph.
//
// Every public operation runs as exactly one store transaction: load,
// diff, apply, persist. No intermediate state is observable outside the
// transaction, and a failure rolls back both the mutation and the audit
// entries written for it.
type Engine struct {
	store    *store.Store
	logger   zerolog.Logger
	now      func() time.Time
	itemHref func(name string) string
	tagHref  func(name string) string
}

// New creates an Engine from the given configuration.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("inventory: Config.Store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:    cfg.Store,
		logger:   cfg.Logger,
		now:      now,
		itemHref: cfg.ItemHref,
		tagHref:  cfg.TagHref,
	}, nil
}

// op is the per-operation context: one transaction, one UUIDv7 token
// stamped on every audit row the operation writes.
type op struct {
	id string
	tx *store.Tx
}

func (e *Engine) newOpID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}

func (e *Engine) withOp(ctx context.Context, name string, fn func(o *op) error) error {
	opID := e.newOpID()
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		return fn(&op{id: opID, tx: tx})
	})
	if err != nil {
		e.logger.Debug().Str("op", name).Str("op_id", opID).Err(err).Msg("operation failed")
		return err
	}
	e.logger.Debug().Str("op", name).Str("op_id", opID).Msg("operation applied")
	return nil
}

// audit appends one audit entry for the entity, stamped with the
// operation token.
func (e *Engine) audit(o *op, entity, message string) error {
	return o.tx.AppendLog(entity, message, e.now(), o.id)
}

// loadedItem is an item hydrated from the store, keeping the row IDs
// the relation mutations need.
type loadedItem struct {
	row     store.EntityRow
	item    *Item
	tags    []*Tag
	tagRows map[string]store.EntityRow
}

func loadItem(tx *store.Tx, name string) (*loadedItem, error) {
	row, ok, err := tx.FindItem(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewNotFoundError("item", name)
	}
	return hydrateItem(tx, row)
}

func hydrateItem(tx *store.Tx, row store.EntityRow) (*loadedItem, error) {
	mapping, err := vars.ParseBlob(row.Properties)
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", row.Name, err)
	}

	tagRows, err := tx.ItemTags(row.ID)
	if err != nil {
		return nil, err
	}
	childRows, err := tx.ItemChildren(row.ID)
	if err != nil {
		return nil, err
	}
	parentRows, err := tx.ItemParents(row.ID)
	if err != nil {
		return nil, err
	}

	li := &loadedItem{
		row: row,
		item: &Item{
			Name:     row.Name,
			Vars:     mapping,
			Tags:     rowNames(tagRows),
			Children: rowNames(childRows),
			Parents:  rowNames(parentRows),
		},
		tagRows: make(map[string]store.EntityRow, len(tagRows)),
	}
	for _, tr := range tagRows {
		tagVars, err := vars.ParseBlob(tr.Properties)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", tr.Name, err)
		}
		li.tags = append(li.tags, &Tag{Name: tr.Name, Vars: tagVars})
		li.tagRows[tr.Name] = tr
	}
	return li, nil
}

// loadedTag mirrors loadedItem for tags.
type loadedTag struct {
	row store.EntityRow
	tag *Tag
}

func loadTag(tx *store.Tx, name string) (*loadedTag, error) {
	row, ok, err := tx.FindTag(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewNotFoundError("tag", name)
	}
	return hydrateTag(tx, row)
}

func hydrateTag(tx *store.Tx, row store.EntityRow) (*loadedTag, error) {
	mapping, err := vars.ParseBlob(row.Properties)
	if err != nil {
		return nil, fmt.Errorf("tag %q: %w", row.Name, err)
	}
	itemRows, err := tx.TagItems(row.ID)
	if err != nil {
		return nil, err
	}
	return &loadedTag{
		row: row,
		tag: &Tag{Name: row.Name, Vars: mapping, Items: rowNames(itemRows)},
	}, nil
}

func rowNames(rows []store.EntityRow) []string {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	return names
}

func (li *loadedItem) persistVars(tx *store.Tx) error {
	blob, err := li.item.Vars.Blob()
	if err != nil {
		return err
	}
	return tx.SetItemProperties(li.row.ID, blob)
}

func (lt *loadedTag) persistVars(tx *store.Tx) error {
	blob, err := lt.tag.Vars.Blob()
	if err != nil {
		return err
	}
	return tx.SetTagProperties(lt.row.ID, blob)
}

// CreateItem creates an item with empty variables and no relations.
// An existing name is a Conflict error.
func (e *Engine) CreateItem(ctx context.Context, name string) (*Item, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, NewValidationError("", "item name must not be empty")
	}
	var created *Item
	err := e.withOp(ctx, "create-item", func(o *op) error {
		if _, ok, err := o.tx.FindItem(name); err != nil {
			return err
		} else if ok {
			return NewConflictError("item", name)
		}
		if _, err := o.tx.CreateItem(name); err != nil {
			return err
		}
		created = &Item{Name: name, Vars: vars.Mapping{}, Tags: []string{}, Children: []string{}, Parents: []string{}}
		return e.audit(o, name, "Item created")
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateTag creates a tag with empty variables and no members.
func (e *Engine) CreateTag(ctx context.Context, name string) (*Tag, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, NewValidationError("", "tag name must not be empty")
	}
	var created *Tag
	err := e.withOp(ctx, "create-tag", func(o *op) error {
		if _, ok, err := o.tx.FindTag(name); err != nil {
			return err
		} else if ok {
			return NewConflictError("tag", name)
		}
		if _, err := o.tx.CreateTag(name); err != nil {
			return err
		}
		created = &Tag{Name: name, Vars: vars.Mapping{}, Items: []string{}}
		return e.audit(o, name, fmt.Sprintf("Tag %s created", name))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetItem loads an item by name.
func (e *Engine) GetItem(ctx context.Context, name string) (*Item, error) {
	name = NormalizeName(name)
	var item *Item
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		li, err := loadItem(tx, name)
		if err != nil {
			return err
		}
		item = li.item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetTag loads a tag by name.
func (e *Engine) GetTag(ctx context.Context, name string) (*Tag, error) {
	name = NormalizeName(name)
	var tag *Tag
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		lt, err := loadTag(tx, name)
		if err != nil {
			return err
		}
		tag = lt.tag
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteItem removes an item, cascading it out of every tag's
// membership and every parent's and child's relation set.
func (e *Engine) DeleteItem(ctx context.Context, name string) error {
	name = NormalizeName(name)
	return e.withOp(ctx, "delete-item", func(o *op) error {
		li, err := loadItem(o.tx, name)
		if err != nil {
			return err
		}
		if err := o.tx.DeleteItem(li.row.ID); err != nil {
			return err
		}
		return e.audit(o, name, "Removed")
	})
}

// DeleteTag removes a tag, cascading removal from all member items.
func (e *Engine) DeleteTag(ctx context.Context, name string) error {
	name = NormalizeName(name)
	return e.withOp(ctx, "delete-tag", func(o *op) error {
		lt, err := loadTag(o.tx, name)
		if err != nil {
			return err
		}
		if err := o.tx.DeleteTag(lt.row.ID); err != nil {
			return err
		}
		return e.audit(o, name, "Removed")
	})
}

// ListItems returns refs for all items, sorted by name.
func (e *Engine) ListItems(ctx context.Context) ([]Ref, error) {
	var refs []Ref
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		rows, err := tx.ListItems()
		if err != nil {
			return err
		}
		refs = e.itemRefs(rowNames(rows))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// ListTags returns refs for all tags, sorted by name.
func (e *Engine) ListTags(ctx context.Context) ([]Ref, error) {
	var refs []Ref
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		rows, err := tx.ListTags()
		if err != nil {
			return err
		}
		refs = e.tagRefs(rowNames(rows))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// SetItemVar creates or replaces one of an item's own variables.
func (e *Engine) SetItemVar(ctx context.Context, name, key string, value vars.Value) error {
	name = NormalizeName(name)
	return e.withOp(ctx, "set-item-var", func(o *op) error {
		li, err := loadItem(o.tx, name)
		if err != nil {
			return err
		}
		li.item.Vars.Set(key, value)
		if err := li.persistVars(o.tx); err != nil {
			return err
		}
		return e.audit(o, name, varSetMessage(key, value))
	})
}

// RemoveItemVar removes one of an item's own variables.
// An absent key is a NotFound error.
func (e *Engine) RemoveItemVar(ctx context.Context, name, key string) error {
	name = NormalizeName(name)
	return e.withOp(ctx, "remove-item-var", func(o *op) error {
		li, err := loadItem(o.tx, name)
		if err != nil {
			return err
		}
		if err := li.item.Vars.Remove(key); err != nil {
			return NewVarNotFoundError(name, key)
		}
		if err := li.persistVars(o.tx); err != nil {
			return err
		}
		return e.audit(o, name, varRemovedMessage(key))
	})
}

// SetTagVar creates or replaces one of a tag's variables.
func (e *Engine) SetTagVar(ctx context.Context, name, key string, value vars.Value) error {
	name = NormalizeName(name)
	return e.withOp(ctx, "set-tag-var", func(o *op) error {
		lt, err := loadTag(o.tx, name)
		if err != nil {
			return err
		}
		lt.tag.Vars.Set(key, value)
		if err := lt.persistVars(o.tx); err != nil {
			return err
		}
		return e.audit(o, name, varSetMessage(key, value))
	})
}

// RemoveTagVar removes one of a tag's variables.
func (e *Engine) RemoveTagVar(ctx context.Context, name, key string) error {
	name = NormalizeName(name)
	return e.withOp(ctx, "remove-tag-var", func(o *op) error {
		lt, err := loadTag(o.tx, name)
		if err != nil {
			return err
		}
		if err := lt.tag.Vars.Remove(key); err != nil {
			return NewVarNotFoundError(name, key)
		}
		if err := lt.persistVars(o.tx); err != nil {
			return err
		}
		return e.audit(o, name, varRemovedMessage(key))
	})
}

// AddTag associates an item with a tag. Adding an association that
// already exists is a silent no-op (membership is a set) and writes no
// audit entry.
func (e *Engine) AddTag(ctx context.Context, itemName, tagName string) error {
	itemName, tagName = NormalizeName(itemName), NormalizeName(tagName)
	return e.withOp(ctx, "add-tag", func(o *op) error {
		li, err := loadItem(o.tx, itemName)
		if err != nil {
			return err
		}
		tagRow, ok, err := o.tx.FindTag(tagName)
		if err != nil {
			return err
		}
		if !ok {
			return NewNotFoundError("tag", tagName)
		}
		added, err := o.tx.AddItemTag(li.row.ID, tagRow.ID)
		if err != nil {
			return err
		}
		if !added {
			return nil
		}
		return e.audit(o, itemName, fmt.Sprintf("Tag %s added", tagName))
	})
}

// RemoveTag dissociates an item from a tag.
func (e *Engine) RemoveTag(ctx context.Context, itemName, tagName string) error {
	itemName, tagName = NormalizeName(itemName), NormalizeName(tagName)
	return e.withOp(ctx, "remove-tag", func(o *op) error {
		li, err := loadItem(o.tx, itemName)
		if err != nil {
			return err
		}
		tagRow, ok, err := o.tx.FindTag(tagName)
		if err != nil {
			return err
		}
		if !ok {
			return NewNotFoundError("tag", tagName)
		}
		removed, err := o.tx.RemoveItemTag(li.row.ID, tagRow.ID)
		if err != nil {
			return err
		}
		if !removed {
			return nil
		}
		return e.audit(o, itemName, fmt.Sprintf("Tag %s removed", tagName))
	})
}

// AddChild adds a parent→child edge between two items.
// No cycle check: the relation is a plain directed edge set.
func (e *Engine) AddChild(ctx context.Context, parentName, childName string) error {
	parentName, childName = NormalizeName(parentName), NormalizeName(childName)
	return e.withOp(ctx, "add-child", func(o *op) error {
		parent, err := loadItem(o.tx, parentName)
		if err != nil {
			return err
		}
		childRow, ok, err := o.tx.FindItem(childName)
		if err != nil {
			return err
		}
		if !ok {
			return NewNotFoundError("item", childName)
		}
		added, err := o.tx.AddChild(parent.row.ID, childRow.ID)
		if err != nil {
			return err
		}
		if !added {
			return nil
		}
		return e.audit(o, parentName, fmt.Sprintf("Child %s added", childName))
	})
}

// RemoveChild removes a parent→child edge.
func (e *Engine) RemoveChild(ctx context.Context, parentName, childName string) error {
	parentName, childName = NormalizeName(parentName), NormalizeName(childName)
	return e.withOp(ctx, "remove-child", func(o *op) error {
		parent, err := loadItem(o.tx, parentName)
		if err != nil {
			return err
		}
		childRow, ok, err := o.tx.FindItem(childName)
		if err != nil {
			return err
		}
		if !ok {
			return NewNotFoundError("item", childName)
		}
		removed, err := o.tx.RemoveChild(parent.row.ID, childRow.ID)
		if err != nil {
			return err
		}
		if !removed {
			return nil
		}
		return e.audit(o, parentName, fmt.Sprintf("Child %s removed", childName))
	})
}

// EffectiveVars computes an item's effective variable mapping.
func (e *Engine) EffectiveVars(ctx context.Context, name string) (vars.Mapping, error) {
	name = NormalizeName(name)
	var merged vars.Mapping
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		li, err := loadItem(tx, name)
		if err != nil {
			return err
		}
		merged = Effective(li.item, li.tags)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// ProvenanceVars computes an item's effective variables with the tag
// that contributed each value, sorted by key.
func (e *Engine) ProvenanceVars(ctx context.Context, name string) ([]VarEntry, error) {
	name = NormalizeName(name)
	var entries []VarEntry
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		li, err := loadItem(tx, name)
		if err != nil {
			return err
		}
		entries = e.provenanceEntries(li)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetItemView renders an item as its wire document.
func (e *Engine) GetItemView(ctx context.Context, name string) (ItemView, error) {
	name = NormalizeName(name)
	var view ItemView
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		li, err := loadItem(tx, name)
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

// GetTagView renders a tag as its wire document.
func (e *Engine) GetTagView(ctx context.Context, name string) (TagView, error) {
	name = NormalizeName(name)
	var view TagView
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		lt, err := loadTag(tx, name)
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

// Logs returns every audit entry, newest first.
func (e *Engine) Logs(ctx context.Context) ([]store.LogEntry, error) {
	return e.store.FindAllLogs(ctx)
}

// LogRange returns the audit entries in [start, end], newest first.
// A zero end defaults to now.
func (e *Engine) LogRange(ctx context.Context, start, end time.Time) ([]store.LogEntry, error) {
	if end.IsZero() {
		end = e.now()
	}
	return e.store.FindLogRange(ctx, start, end)
}

func (e *Engine) provenanceEntries(li *loadedItem) []VarEntry {
	entries := Provenance(li.item, li.tags)
	if e.tagHref != nil {
		for i := range entries {
			if entries[i].Tag != "" {
				entries[i].Href = e.tagHref(entries[i].Tag)
			}
		}
	}
	return entries
}

func (e *Engine) itemView(li *loadedItem) ItemView {
	return ItemView{
		Name:     li.item.Name,
		Vars:     e.provenanceEntries(li),
		Tags:     e.tagRefs(li.item.Tags),
		Children: e.itemRefs(li.item.Children),
	}
}

func (e *Engine) tagView(lt *loadedTag) TagView {
	return TagView{
		Name:  lt.tag.Name,
		Vars:  lt.tag.Vars,
		Items: e.itemRefs(lt.tag.Items),
	}
}

func (e *Engine) itemRefs(names []string) []Ref {
	refs := make([]Ref, 0, len(names))
	for _, n := range names {
		ref := Ref{Name: n}
		if e.itemHref != nil {
			ref.Href = e.itemHref(n)
		}
		refs = append(refs, ref)
	}
	return refs
}

func (e *Engine) tagRefs(names []string) []Ref {
	refs := make([]Ref, 0, len(names))
	for _, n := range names {
		ref := Ref{Name: n}
		if e.tagHref != nil {
			ref.Href = e.tagHref(n)
		}
		refs = append(refs, ref)
	}
	return refs
}

func varSetMessage(key string, value vars.Value) string {
	return fmt.Sprintf("Variable '%s' set to '%s'", key, vars.Display(value))
}

func varRemovedMessage(key string) string {
	return fmt.Sprintf("Variable '%s' removed", key)
}
