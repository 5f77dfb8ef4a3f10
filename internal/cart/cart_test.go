package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecompute_EmptyCart(t *testing.T) {
	assert.Equal(t, Snapshot{}, Recompute(nil))
	assert.Equal(t, Snapshot{}, Recompute([]LineItem{}))
}

func TestRecompute_SumsActiveItemsOnly(t *testing.T) {
	items := []LineItem{
		{GoodsID: 1, UnitPrice: 1000, UnitScore: 5, Quantity: 2, Active: true},
		{GoodsID: 2, UnitPrice: 300, UnitScore: 1, Quantity: 4, Active: false},
		{GoodsID: 3, UnitPrice: 250, UnitScore: 0, Quantity: 1, Active: true},
	}

	got := Recompute(items)
	assert.Equal(t, Snapshot{TotalAmount: 2250, TotalScore: 10, SelectAll: false}, got)
	assert.Equal(t, got, Recompute(items), "Recompute should be deterministic")
}

func TestRecompute_SelectAll(t *testing.T) {
	tests := []struct {
		name  string
		items []LineItem
		want  bool
	}{
		{"empty", nil, false},
		{"all active", []LineItem{{GoodsID: 1, Quantity: 1, Active: true}, {GoodsID: 2, Quantity: 1, Active: true}}, true},
		{"one inactive", []LineItem{{GoodsID: 1, Quantity: 1, Active: true}, {GoodsID: 2, Quantity: 1}}, false},
		{"all inactive", []LineItem{{GoodsID: 1, Quantity: 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recompute(tt.items).SelectAll)
		})
	}
}

func TestScenario_AddToggleSelectAll(t *testing.T) {
	var items []LineItem
	assert.Equal(t, Snapshot{}, Recompute(items))

	items = ApplyUpdate(items, LineItem{GoodsID: 1, UnitPrice: 1000, Quantity: 2, Active: true})
	assert.Equal(t, Snapshot{TotalAmount: 2000, SelectAll: true}, Recompute(items))

	items = ApplyUpdate(items, LineItem{GoodsID: 2, UnitPrice: 500, Quantity: 1, Active: false})
	assert.Equal(t, Snapshot{TotalAmount: 2000, SelectAll: false}, Recompute(items))

	items = ToggleAll(items, !Recompute(items).SelectAll)
	assert.Equal(t, Snapshot{TotalAmount: 2500, SelectAll: true}, Recompute(items))
}

func TestApplyUpdate_ToggleRoundTrip(t *testing.T) {
	items := []LineItem{
		{GoodsID: 1, PropertySelectionID: "1:2", UnitPrice: 1200, UnitScore: 3, Quantity: 3, Active: true},
		{GoodsID: 1, PropertySelectionID: "1:3", UnitPrice: 800, UnitScore: 2, Quantity: 1, Active: true},
	}
	before := Recompute(items)

	target := items[0]
	target.Active = false
	off := ApplyUpdate(items, target)
	mid := Recompute(off)
	assert.Equal(t, before.TotalAmount-3600, mid.TotalAmount)
	assert.Equal(t, before.TotalScore-9, mid.TotalScore)

	target.Active = true
	on := ApplyUpdate(off, target)
	assert.Equal(t, before, Recompute(on))
}

func TestApplyUpdate_ReplacesMatchingLineInPlace(t *testing.T) {
	items := []LineItem{
		{GoodsID: 1, PropertySelectionID: "a", Quantity: 1},
		{GoodsID: 1, PropertySelectionID: "b", Quantity: 1},
		{GoodsID: 2, Quantity: 1},
	}

	next := ApplyUpdate(items, LineItem{GoodsID: 1, PropertySelectionID: "b", Quantity: 5})
	require.Len(t, next, 3)
	assert.Equal(t, 5, next[1].Quantity)
	assert.Equal(t, "b", next[1].PropertySelectionID)
	assert.Equal(t, 1, items[1].Quantity, "input must not be mutated")
}

func TestApplyUpdate_AppendsUnknownLine(t *testing.T) {
	items := []LineItem{{GoodsID: 1, Quantity: 1}}
	next := ApplyUpdate(items, LineItem{GoodsID: 1, PropertySelectionID: "x", Quantity: 2})

	require.Len(t, next, 2)
	assert.Equal(t, "x", next[1].PropertySelectionID)
	assert.Len(t, items, 1)
}

func TestApplyUpdate_ClampsQuantity(t *testing.T) {
	next := ApplyUpdate(nil, LineItem{GoodsID: 9, Quantity: 0})
	require.Len(t, next, 1)
	assert.Equal(t, 1, next[0].Quantity)
}

func TestToggleAll_DoesNotMutateInput(t *testing.T) {
	items := []LineItem{{GoodsID: 1, Quantity: 1}, {GoodsID: 2, Quantity: 1, Active: true}}
	next := ToggleAll(items, true)

	assert.True(t, next[0].Active)
	assert.True(t, next[1].Active)
	assert.False(t, items[0].Active)
	assert.Nil(t, ToggleAll(nil, true))
}

func TestSetActiveAndQuantity(t *testing.T) {
	items := []LineItem{{GoodsID: 1, PropertySelectionID: "p", UnitPrice: 100, Quantity: 1, Active: true}}

	items = SetQuantity(items, 1, "p", 4)
	assert.Equal(t, int64(400), Recompute(items).TotalAmount)

	items = SetActive(items, 1, "p", false)
	assert.Equal(t, Snapshot{}, Recompute(items))

	unchanged := SetActive(items, 42, "", true)
	assert.Equal(t, items, unchanged)
}

func TestRemove(t *testing.T) {
	items := []LineItem{{GoodsID: 1, Quantity: 1, Active: true}, {GoodsID: 2, Quantity: 2, Active: true}}

	next := Remove(items, 1, "")
	require.Len(t, next, 1)
	assert.Equal(t, int64(2), next[0].GoodsID)
	assert.True(t, Recompute(next).SelectAll)

	assert.Nil(t, Remove(next, 2, ""))
	assert.False(t, Recompute(Remove(next, 2, "")).SelectAll)
}

func TestActiveAndCount(t *testing.T) {
	items := []LineItem{{GoodsID: 1, Quantity: 2, Active: true}, {GoodsID: 2, Quantity: 3}}

	assert.Equal(t, 5, Count(items))
	selected := Active(items)
	require.Len(t, selected, 1)
	assert.Equal(t, int64(1), selected[0].GoodsID)
}
