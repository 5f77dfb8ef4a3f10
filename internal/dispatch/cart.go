package dispatch

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/five82/storefront/internal/cart"
	"github.com/five82/storefront/internal/state"
)

// LoadCart replaces the local cart with the server-side one.
func (d *Dispatcher) LoadCart(ctx context.Context) error {
	return load(ctx, d, "cart", "",
		d.backend.FetchCart,
		func(st state.State, items []cart.LineItem) state.State {
			st.Cart = cart.ApplyUpdates(nil, items...)
			return st
		})
}

// UpdateCart applies patches locally and then mirrors the touched lines to
// the server. The local commit stands even when the remote call fails.
func (d *Dispatcher) UpdateCart(ctx context.Context, patches ...cart.LineItem) error {
	if len(patches) == 0 {
		return nil
	}
	snap := d.store.Apply(func(st state.State) state.State {
		st.Cart = cart.ApplyUpdates(st.Cart, patches...)
		return st
	})

	lines := make([]cart.LineItem, 0, len(patches))
	for _, patch := range patches {
		if item, ok := cart.Find(snap.Cart, patch.GoodsID, patch.PropertySelectionID); ok {
			lines = append(lines, item)
		}
	}
	return d.mirror(ctx, "cartUpdate", lineKey(patches[0]), func(ctx context.Context) error {
		return d.backend.UpdateCart(ctx, lines)
	})
}

// SetItemQuantity edits one line's quantity and mirrors it remotely.
func (d *Dispatcher) SetItemQuantity(ctx context.Context, goodsID int64, propertyID string, quantity int) error {
	item, ok := cart.Find(d.store.Snapshot().Cart, goodsID, propertyID)
	if !ok {
		return nil
	}
	item.Quantity = quantity
	return d.UpdateCart(ctx, item)
}

// RemoveItem drops one line locally and on the server.
func (d *Dispatcher) RemoveItem(ctx context.Context, goodsID int64, propertyID string) error {
	d.store.Apply(func(st state.State) state.State {
		st.Cart = cart.Remove(st.Cart, goodsID, propertyID)
		return st
	})
	key := lineKey(cart.LineItem{GoodsID: goodsID, PropertySelectionID: propertyID})
	return d.mirror(ctx, "cartRemove", key, func(ctx context.Context) error {
		return d.backend.RemoveCartItem(ctx, goodsID, propertyID)
	})
}

// SetItemActive toggles one checkbox and mirrors the line remotely. Unknown
// lines are ignored.
func (d *Dispatcher) SetItemActive(ctx context.Context, goodsID int64, propertyID string, active bool) error {
	item, ok := cart.Find(d.store.Snapshot().Cart, goodsID, propertyID)
	if !ok {
		return nil
	}
	item.Active = active
	return d.UpdateCart(ctx, item)
}

// ToggleSelectAll flips every line to the negation of the current
// select-all flag and mirrors all lines. An empty cart is left alone.
func (d *Dispatcher) ToggleSelectAll(ctx context.Context) error {
	if len(d.store.Snapshot().Cart) == 0 {
		return nil
	}
	snap := d.store.Apply(func(st state.State) state.State {
		target := !cart.Recompute(st.Cart).SelectAll
		st.Cart = cart.ToggleAll(st.Cart, target)
		return st
	})
	lines := snap.Cart
	if len(lines) == 0 {
		return nil
	}
	return d.mirror(ctx, "cartSelectAll", strconv.FormatBool(lines[0].Active), func(ctx context.Context) error {
		return d.backend.UpdateCart(ctx, lines)
	})
}

// mirror runs a remote write after a local commit. Failures are recorded on
// the snapshot without touching its data.
func (d *Dispatcher) mirror(ctx context.Context, op, key string, call func(context.Context) error) error {
	ctx, span := d.tracer.Start(ctx, "dispatch."+op, trace.WithAttributes(attribute.String("storefront.key", key)))
	defer span.End()

	if err := call(ctx); err != nil {
		return d.fail(span, op, key, err)
	}
	return nil
}

func lineKey(item cart.LineItem) string {
	key := strconv.FormatInt(item.GoodsID, 10)
	if item.PropertySelectionID != "" {
		key += "/" + item.PropertySelectionID
	}
	return key
}
