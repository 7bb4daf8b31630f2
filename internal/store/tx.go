package store

import (
	"context"
	"database/sql"
	"fmt"
)

// EntityRow is one items/tags row: the entity identity plus its opaque
// property blob. Parsing the blob into a variable mapping is the
// inventory layer's job.
type EntityRow struct {
	ID         int64
	Name       string
	Properties string
}

// Tx wraps a single SQL transaction with the row-level operations the
// engine needs. All methods run against the wrapped transaction, so a
// rollback discards every write made through the same Tx.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

// CreateItem inserts a new item row and returns it.
// Fails on a duplicate name (UNIQUE constraint).
func (t *Tx) CreateItem(name string) (EntityRow, error) {
	return t.createEntity("items", name)
}

// CreateTag inserts a new tag row and returns it.
// Fails on a duplicate name (UNIQUE constraint).
func (t *Tx) CreateTag(name string) (EntityRow, error) {
	return t.createEntity("tags", name)
}

func (t *Tx) createEntity(table, name string) (EntityRow, error) {
	res, err := t.tx.ExecContext(t.ctx,
		fmt.Sprintf(`INSERT INTO %s (name, properties) VALUES (?, '')`, table), name)
	if err != nil {
		return EntityRow{}, fmt.Errorf("insert %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return EntityRow{}, fmt.Errorf("insert %s: last insert id: %w", table, err)
	}
	return EntityRow{ID: id, Name: name, Properties: ""}, nil
}

// FindItem looks up an item by name.
// The bool result reports whether the row exists.
func (t *Tx) FindItem(name string) (EntityRow, bool, error) {
	return t.findEntity("items", name)
}

// FindTag looks up a tag by name.
func (t *Tx) FindTag(name string) (EntityRow, bool, error) {
	return t.findEntity("tags", name)
}

func (t *Tx) findEntity(table, name string) (EntityRow, bool, error) {
	var row EntityRow
	err := t.tx.QueryRowContext(t.ctx,
		fmt.Sprintf(`SELECT id, name, properties FROM %s WHERE name = ?`, table), name).
		Scan(&row.ID, &row.Name, &row.Properties)
	if err == sql.ErrNoRows {
		return EntityRow{}, false, nil
	}
	if err != nil {
		return EntityRow{}, false, fmt.Errorf("find %s: %w", table, err)
	}
	return row, true, nil
}

// ListItems returns all item rows ordered by name.
func (t *Tx) ListItems() ([]EntityRow, error) {
	return t.listEntities("items")
}

// ListTags returns all tag rows ordered by name.
func (t *Tx) ListTags() ([]EntityRow, error) {
	return t.listEntities("tags")
}

func (t *Tx) listEntities(table string) ([]EntityRow, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		fmt.Sprintf(`SELECT id, name, properties FROM %s ORDER BY name ASC`, table))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return scanEntityRows(rows, table)
}

// SetItemProperties replaces an item's property blob.
func (t *Tx) SetItemProperties(id int64, blob string) error {
	return t.setProperties("items", id, blob)
}

// SetTagProperties replaces a tag's property blob.
func (t *Tx) SetTagProperties(id int64, blob string) error {
	return t.setProperties("tags", id, blob)
}

func (t *Tx) setProperties(table string, id int64, blob string) error {
	_, err := t.tx.ExecContext(t.ctx,
		fmt.Sprintf(`UPDATE %s SET properties = ? WHERE id = ?`, table), blob, id)
	if err != nil {
		return fmt.Errorf("update %s properties: %w", table, err)
	}
	return nil
}

// DeleteItem removes an item row. The foreign keys on items_to_tags and
// items_to_items cascade, so tag membership and parent/child edges in
// both directions disappear with the row.
func (t *Tx) DeleteItem(id int64) error {
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// DeleteTag removes a tag row, cascading through items_to_tags.
func (t *Tx) DeleteTag(id int64) error {
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// AddItemTag associates an item with a tag.
// ON CONFLICT DO NOTHING keeps membership a set: the same association
// twice is a silent no-op. Returns whether a new edge was inserted.
func (t *Tx) AddItemTag(itemID, tagID int64) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO items_to_tags (item_id, tag_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, itemID, tagID)
	if err != nil {
		return false, fmt.Errorf("add item tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add item tag: rows affected: %w", err)
	}
	return n > 0, nil
}

// RemoveItemTag dissociates an item from a tag. Removing an absent
// edge is a no-op; the bool reports whether an edge was deleted.
func (t *Tx) RemoveItemTag(itemID, tagID int64) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		DELETE FROM items_to_tags WHERE item_id = ? AND tag_id = ?
	`, itemID, tagID)
	if err != nil {
		return false, fmt.Errorf("remove item tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove item tag: rows affected: %w", err)
	}
	return n > 0, nil
}

// AddChild inserts a parent→child edge. Set semantics as AddItemTag.
// No cycle check: the relation is a plain directed edge set.
func (t *Tx) AddChild(parentID, childID int64) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO items_to_items (parent_id, child_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, parentID, childID)
	if err != nil {
		return false, fmt.Errorf("add child: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add child: rows affected: %w", err)
	}
	return n > 0, nil
}

// RemoveChild deletes a parent→child edge.
func (t *Tx) RemoveChild(parentID, childID int64) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		DELETE FROM items_to_items WHERE parent_id = ? AND child_id = ?
	`, parentID, childID)
	if err != nil {
		return false, fmt.Errorf("remove child: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove child: rows affected: %w", err)
	}
	return n > 0, nil
}

// ItemTags returns the tags an item belongs to, ordered by name.
func (t *Tx) ItemTags(itemID int64) ([]EntityRow, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT tg.id, tg.name, tg.properties
		FROM tags tg
		JOIN items_to_tags it ON it.tag_id = tg.id
		WHERE it.item_id = ?
		ORDER BY tg.name ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("item tags: %w", err)
	}
	return scanEntityRows(rows, "item tags")
}

// TagItems returns a tag's member items, ordered by name.
func (t *Tx) TagItems(tagID int64) ([]EntityRow, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT i.id, i.name, i.properties
		FROM items i
		JOIN items_to_tags it ON it.item_id = i.id
		WHERE it.tag_id = ?
		ORDER BY i.name ASC
	`, tagID)
	if err != nil {
		return nil, fmt.Errorf("tag items: %w", err)
	}
	return scanEntityRows(rows, "tag items")
}

// ItemChildren returns an item's children, ordered by name.
func (t *Tx) ItemChildren(itemID int64) ([]EntityRow, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT c.id, c.name, c.properties
		FROM items c
		JOIN items_to_items ii ON ii.child_id = c.id
		WHERE ii.parent_id = ?
		ORDER BY c.name ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("item children: %w", err)
	}
	return scanEntityRows(rows, "item children")
}

// ItemParents returns the inverse of ItemChildren, ordered by name.
func (t *Tx) ItemParents(itemID int64) ([]EntityRow, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT p.id, p.name, p.properties
		FROM items p
		JOIN items_to_items ii ON ii.parent_id = p.id
		WHERE ii.child_id = ?
		ORDER BY p.name ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("item parents: %w", err)
	}
	return scanEntityRows(rows, "item parents")
}

func scanEntityRows(rows *sql.Rows, what string) ([]EntityRow, error) {
	defer rows.Close()

	var out []EntityRow
	for rows.Next() {
		var row EntityRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Properties); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}

	// Return empty slice instead of nil
	if out == nil {
		out = []EntityRow{}
	}
	return out, nil
}
