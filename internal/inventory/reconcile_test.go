package inventory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cairn/internal/vars"
)

func TestDiffNames(t *testing.T) {
	toAdd, toRemove := diffNames(
		[]string{"a", "b", "c"},
		[]Ref{{Name: "b"}, {Name: "c"}, {Name: "d"}},
	)
	assert.Equal(t, []string{"d"}, toAdd)
	assert.Equal(t, []string{"a"}, toRemove)

	toAdd, toRemove = diffNames([]string{"a"}, []Ref{{Name: "a"}})
	assert.Empty(t, toAdd)
	assert.Empty(t, toRemove)

	toAdd, toRemove = diffNames(nil, []Ref{{Name: "z"}, {Name: "a"}})
	assert.Equal(t, []string{"a", "z"}, toAdd)
	assert.Empty(t, toRemove)
}

func TestUpdateItem_ReconcilesTagSet(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateItem(ctx, "fireflash")
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := e.CreateTag(ctx, name)
		require.NoError(t, err)
	}
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, e.AddTag(ctx, "fireflash", name))
	}

	view, err := e.UpdateItem(ctx, "fireflash", ItemDoc{
		Tags:    []Ref{{Name: "b"}, {Name: "c"}, {Name: "d"}},
		HasTags: true,
	})
	require.NoError(t, err)

	names := make([]string, len(view.Tags))
	for i, ref := range view.Tags {
		names[i] = ref.Name
	}
	assert.Equal(t, []string{"b", "c", "d"}, names)
}

func TestUpdateItem_DanglingTagRollsBackWholeCall(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateItem(ctx, "fireflash")
	require.NoError(t, err)
	_, err = e.CreateTag(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, e.AddTag(ctx, "fireflash", "a"))

	before, err := e.Logs(ctx)
	require.NoError(t, err)

	_, err = e.UpdateItem(ctx, "fireflash", ItemDoc{
		Tags:    []Ref{{Name: "ghost"}},
		HasTags: true,
	})
	assert.True(t, IsReference(err), "expected reference error, got %v", err)

	// the removal of "a" happened inside the failed transaction and
	// must not survive it
	item, err := e.GetItem(ctx, "fireflash")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, item.Tags)

	after, err := e.Logs(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "failed call leaked audit entries")
}

func TestUpdateItem_ReapplyIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateItem(ctx, "fireflash")
	require.NoError(t, err)
	_, err = e.CreateTag(ctx, "linux")
	require.NoError(t, err)

	doc := ItemDoc{
		Vars:    vars.Mapping{"os": vars.String("rhel")},
		HasVars: true,
		Tags:    []Ref{{Name: "linux"}},
		HasTags: true,
	}
	_, err = e.UpdateItem(ctx, "fireflash", doc)
	require.NoError(t, err)

	before, err := e.Logs(ctx)
	require.NoError(t, err)

	_, err = e.UpdateItem(ctx, "fireflash", doc)
	require.NoError(t, err)

	after, err := e.Logs(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "reapplying a satisfied document wrote audit entries")
}

func TestUpdateItem_RestatedInheritedValueStaysInherited(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateItem(ctx, "fireflash")
	require.NoError(t, err)
	_, err = e.CreateTag(ctx, "linux")
	require.NoError(t, err)
	require.NoError(t, e.AddTag(ctx, "fireflash", "linux"))
	require.NoError(t, e.SetTagVar(ctx, "linux", "os", vars.String("rhel")))

	_, err = e.UpdateItem(ctx, "fireflash", ItemDoc{
		Vars:    vars.Mapping{"os": vars.String("rhel")},
		HasVars: true,
	})
	require.NoError(t, err)

	// no own-variable override was written
	item, err := e.GetItem(ctx, "fireflash")
	require.NoError(t, err)
	assert.Empty(t, item.Vars)

	merged, err := e.EffectiveVars(ctx, "fireflash")
	require.NoError(t, err)
	assert.Equal(t, vars.String("rhel"), merged["os"])
}

func TestUpdateItem_DivergingInheritedValueBecomesOverride(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateItem(ctx, "fireflash")
	require.NoError(t, err)
	_, err = e.CreateTag(ctx, "linux")
	require.NoError(t, err)
	require.NoError(t, e.AddTag(ctx, "fireflash", "linux"))
	require.NoError(t, e.SetTagVar(ctx, "linux", "os", vars.String("rhel")))

	_, err = e.UpdateItem(ctx, "fireflash", ItemDoc{
		Vars:    vars.Mapping{"os": vars.String("ubuntu")},
		HasVars: true,
	})
	require.NoError(t, err)

	item, err := e.GetItem(ctx, "fireflash")
	require.NoError(t, err)
	assert.Equal(t, vars.String("ubuntu"), item.Vars["os"])
}

func TestUpdateItem_OmittedSectionsUntouched(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateItem(ctx, "fireflash")
	require.NoError(t, err)
	_, err = e.CreateTag(ctx, "linux")
	require.NoError(t, err)
	require.NoError(t, e.AddTag(ctx, "fireflash", "linux"))
	require.NoError(t, e.SetItemVar(ctx, "fireflash", "os", vars.String("rhel")))

	// vars-only document: the tag section is absent, not empty
	_, err = e.UpdateItem(ctx, "fireflash", ItemDoc{
		Vars:    vars.Mapping{"os": vars.String("rhel")},
		HasVars: true,
	})
	require.NoError(t, err)

	item, err := e.GetItem(ctx, "fireflash")
	require.NoError(t, err)
	assert.Equal(t, []string{"linux"}, item.Tags)

	// an explicitly empty tag list clears the set
	_, err = e.UpdateItem(ctx, "fireflash", ItemDoc{
		Tags:    []Ref{},
		HasTags: true,
	})
	require.NoError(t, err)

	item, err = e.GetItem(ctx, "fireflash")
	require.NoError(t, err)
	assert.Empty(t, item.Tags)
	assert.Equal(t, vars.String("rhel"), item.Vars["os"])
}

func TestUpdateItem_VarRemoval(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateItem(ctx, "fireflash")
	require.NoError(t, err)
	require.NoError(t, e.SetItemVar(ctx, "fireflash", "os", vars.String("rhel")))
	require.NoError(t, e.SetItemVar(ctx, "fireflash", "rack", vars.Number("12")))

	_, err = e.UpdateItem(ctx, "fireflash", ItemDoc{
		Vars:    vars.Mapping{"os": vars.String("rhel")},
		HasVars: true,
	})
	require.NoError(t, err)

	item, err := e.GetItem(ctx, "fireflash")
	require.NoError(t, err)
	assert.Equal(t, vars.Mapping{"os": vars.String("rhel")}, item.Vars)

	entries, err := e.Logs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Variable 'rack' removed", entries[0].Message)
}

func TestUpdateItem_RenameRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateItem(ctx, "fireflash")
	require.NoError(t, err)

	_, err = e.UpdateItem(ctx, "fireflash", ItemDoc{Name: "firefly"})
	assert.True(t, IsValidation(err), "expected validation error, got %v", err)
}

func TestUpdateItem_ReconcilesChildren(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for _, name := range []string{"chassis", "blade1", "blade2"} {
		_, err := e.CreateItem(ctx, name)
		require.NoError(t, err)
	}
	require.NoError(t, e.AddChild(ctx, "chassis", "blade1"))

	view, err := e.UpdateItem(ctx, "chassis", ItemDoc{
		Children:    []Ref{{Name: "blade2"}},
		HasChildren: true,
	})
	require.NoError(t, err)
	require.Len(t, view.Children, 1)
	assert.Equal(t, "blade2", view.Children[0].Name)

	orphan, err := e.GetItem(ctx, "blade1")
	require.NoError(t, err)
	assert.Empty(t, orphan.Parents)
}

func TestUpdateTag_ReconcilesMembersAndVars(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateTag(ctx, "linux")
	require.NoError(t, err)
	for _, name := range []string{"fireflash", "firefly"} {
		_, err := e.CreateItem(ctx, name)
		require.NoError(t, err)
	}
	require.NoError(t, e.AddTag(ctx, "fireflash", "linux"))

	view, err := e.UpdateTag(ctx, "linux", TagDoc{
		Vars:     vars.Mapping{"os": vars.String("rhel")},
		HasVars:  true,
		Items:    []Ref{{Name: "firefly"}},
		HasItems: true,
	})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "firefly", view.Items[0].Name)
	assert.Equal(t, vars.String("rhel"), view.Vars["os"])

	// membership entries land on the item's audit trail
	entries, err := e.Logs(ctx)
	require.NoError(t, err)
	var sawAdd, sawRemove bool
	for _, entry := range entries {
		if entry.Name == "firefly" && entry.Message == "Tag linux added" {
			sawAdd = true
		}
		if entry.Name == "fireflash" && entry.Message == "Tag linux removed" {
			sawRemove = true
		}
	}
	assert.True(t, sawAdd)
	assert.True(t, sawRemove)
}

func TestUpdateTag_MissingMemberFails(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateTag(ctx, "linux")
	require.NoError(t, err)

	_, err = e.UpdateTag(ctx, "linux", TagDoc{
		Items:    []Ref{{Name: "ghost"}},
		HasItems: true,
	})
	assert.True(t, IsReference(err), "expected reference error, got %v", err)
}

func TestApplyItem_CreatesThenReconciles(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateTag(ctx, "linux")
	require.NoError(t, err)

	view, err := e.ApplyItem(ctx, ItemDoc{
		Name:    "fireflash",
		Vars:    vars.Mapping{"os": vars.String("rhel")},
		HasVars: true,
		Tags:    []Ref{{Name: "linux"}},
		HasTags: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "fireflash", view.Name)
	require.Len(t, view.Tags, 1)

	// applying again over the existing item is not a conflict
	_, err = e.ApplyItem(ctx, ItemDoc{Name: "fireflash"})
	require.NoError(t, err)
}

func TestApplyItem_RequiresName(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.ApplyItem(context.Background(), ItemDoc{})
	assert.True(t, IsValidation(err))
}

func TestApplyTag_CreatesThenReconciles(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	view, err := e.ApplyTag(ctx, TagDoc{
		Name:    "linux",
		Vars:    vars.Mapping{"os": vars.String("rhel")},
		HasVars: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "linux", view.Name)
	assert.Equal(t, vars.String("rhel"), view.Vars["os"])
}

func TestItemDoc_DecodeObjectVars(t *testing.T) {
	var doc ItemDoc
	err := json.Unmarshal([]byte(`{
		"name": "fireflash",
		"vars": {"os": "rhel", "rack": 12},
		"tags": [{"name": "linux"}]
	}`), &doc)
	require.NoError(t, err)

	assert.Equal(t, "fireflash", doc.Name)
	assert.True(t, doc.HasVars)
	assert.Equal(t, vars.String("rhel"), doc.Vars["os"])
	assert.Equal(t, vars.Number("12"), doc.Vars["rack"])
	assert.True(t, doc.HasTags)
	require.Len(t, doc.Tags, 1)
	assert.Equal(t, "linux", doc.Tags[0].Name)
	assert.False(t, doc.HasChildren)
}

func TestItemDoc_DecodeListVars(t *testing.T) {
	// list form as rendered by item views: inherited entries carry tag
	// provenance, and the own override beats the inherited echo
	var doc ItemDoc
	err := json.Unmarshal([]byte(`{
		"name": "fireflash",
		"vars": [
			{"key": "os", "value": "rhel", "tag": "linux"},
			{"key": "os", "value": "debian"},
			{"key": "ntp", "value": "pool.ntp.org", "tag": "linux"}
		]
	}`), &doc)
	require.NoError(t, err)

	assert.True(t, doc.HasVars)
	assert.Equal(t, vars.String("debian"), doc.Vars["os"])
	assert.Equal(t, vars.String("pool.ntp.org"), doc.Vars["ntp"])
}

func TestItemDoc_DecodeRejectsScalarVars(t *testing.T) {
	var doc ItemDoc
	err := json.Unmarshal([]byte(`{"vars": 42}`), &doc)
	assert.Error(t, err)
}

func TestTagDoc_Decode(t *testing.T) {
	var doc TagDoc
	err := json.Unmarshal([]byte(`{
		"name": "linux",
		"vars": {"os": "rhel"},
		"items": [{"name": "fireflash", "href": "/api/item/fireflash/"}]
	}`), &doc)
	require.NoError(t, err)

	assert.Equal(t, "linux", doc.Name)
	assert.True(t, doc.HasVars)
	assert.True(t, doc.HasItems)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "fireflash", doc.Items[0].Name)
}
