// Package cart derives totals and selection state from cart line items.
//
// Totals are never stored: every caller recomputes a Snapshot from the
// current items after each change. All functions are pure and return new
// slices; the input is left untouched.
package cart

// LineItem is a single goods/property combination in the cart.
type LineItem struct {
	GoodsID             int64
	PropertySelectionID string
	Name                string
	Pic                 string
	UnitPrice           int64 // minor currency units
	UnitScore           int64
	Quantity            int
	Active              bool
}

// Snapshot is the derived view of a cart.
type Snapshot struct {
	TotalAmount int64
	TotalScore  int64
	SelectAll   bool
}

func (li LineItem) sameLine(goodsID int64, propertyID string) bool {
	return li.GoodsID == goodsID && li.PropertySelectionID == propertyID
}

// Recompute sums price and score over active items. SelectAll is true only
// for a non-empty cart whose items are all active.
func Recompute(items []LineItem) Snapshot {
	snap := Snapshot{SelectAll: len(items) > 0}
	for _, item := range items {
		if !item.Active {
			snap.SelectAll = false
			continue
		}
		qty := int64(item.Quantity)
		snap.TotalAmount += item.UnitPrice * qty
		snap.TotalScore += item.UnitScore * qty
	}
	return snap
}

// ToggleAll sets every item's Active flag to target. The select-all control
// passes the negation of the current Snapshot.SelectAll.
func ToggleAll(items []LineItem, target bool) []LineItem {
	if len(items) == 0 {
		return nil
	}
	next := make([]LineItem, len(items))
	for i, item := range items {
		item.Active = target
		next[i] = item
	}
	return next
}

// ApplyUpdate replaces the item sharing patch's goods and property selection,
// or appends patch when no such item exists. A quantity below one is raised
// to one; removal goes through Remove.
func ApplyUpdate(items []LineItem, patch LineItem) []LineItem {
	if patch.Quantity < 1 {
		patch.Quantity = 1
	}
	next := make([]LineItem, 0, len(items)+1)
	replaced := false
	for _, item := range items {
		if !replaced && item.sameLine(patch.GoodsID, patch.PropertySelectionID) {
			next = append(next, patch)
			replaced = true
			continue
		}
		next = append(next, item)
	}
	if !replaced {
		next = append(next, patch)
	}
	return next
}

// ApplyUpdates folds ApplyUpdate over patches in order.
func ApplyUpdates(items []LineItem, patches ...LineItem) []LineItem {
	next := clone(items)
	for _, patch := range patches {
		next = ApplyUpdate(next, patch)
	}
	return next
}

// Find returns the item for the given goods and property selection.
func Find(items []LineItem, goodsID int64, propertyID string) (LineItem, bool) {
	for _, item := range items {
		if item.sameLine(goodsID, propertyID) {
			return item, true
		}
	}
	return LineItem{}, false
}

// SetActive toggles one line's checkbox. Unknown lines leave items unchanged.
func SetActive(items []LineItem, goodsID int64, propertyID string, active bool) []LineItem {
	item, ok := Find(items, goodsID, propertyID)
	if !ok {
		return clone(items)
	}
	item.Active = active
	return ApplyUpdate(items, item)
}

// SetQuantity edits one line's quantity. Unknown lines leave items unchanged.
func SetQuantity(items []LineItem, goodsID int64, propertyID string, quantity int) []LineItem {
	item, ok := Find(items, goodsID, propertyID)
	if !ok {
		return clone(items)
	}
	item.Quantity = quantity
	return ApplyUpdate(items, item)
}

// Remove drops the line for the given goods and property selection.
func Remove(items []LineItem, goodsID int64, propertyID string) []LineItem {
	next := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.sameLine(goodsID, propertyID) {
			continue
		}
		next = append(next, item)
	}
	if len(next) == 0 {
		return nil
	}
	return next
}

// Active returns the selected lines, the ones a checkout would submit.
func Active(items []LineItem) []LineItem {
	var selected []LineItem
	for _, item := range items {
		if item.Active {
			selected = append(selected, item)
		}
	}
	return selected
}

// Count returns the total quantity across all lines, used for the tab badge.
func Count(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func clone(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	dup := make([]LineItem, len(items))
	copy(dup, items)
	return dup
}
