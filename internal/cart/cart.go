// Package cart implements the session-owned cart aggregate.  A cart
// lives only inside the active checkout flow (serialized into the flow
// snapshot between requests) and is destroyed on successful submission
// or explicit clear; nothing here touches the database.
package cart

import (
    "errors"
    "math"
)

// Item is a single cart line.  PrecioCents is the unit price copied
// from the product at the moment the item was added; the checkout
// captures it into detalle_pedidos so later menu edits do not change
// placed orders.
type Item struct {
    ProductID   uint64  `json:"producto_id"`
    Nombre      string  `json:"nombre"`
    PrecioCents uint32  `json:"precio_cents"`
    Cantidad    uint32  `json:"cantidad"`
    ImagenURL   *string `json:"imagen_url,omitempty"`
}

// Totals is the money breakdown of a cart under an optional discount.
// All amounts are integer cents.  Puntos is the loyalty accrual the
// order would earn: one point per whole currency unit of the total.
type Totals struct {
    SubtotalCents  uint32 `json:"subtotal_cents"`
    DescuentoPct   uint8  `json:"descuento_pct"`
    DescuentoCents uint32 `json:"descuento_cents"`
    TotalCents     uint32 `json:"total_cents"`
    Puntos         uint32 `json:"puntos"`
}

// MaxQuantity bounds a single cart line.  Nothing on the menu is ordered
// by the thousand; larger values only show up in tampered requests.
const MaxQuantity = 999

// ErrEmptyQuantity is returned when an item is added or updated with a
// zero quantity.
var ErrEmptyQuantity = errors.New("quantity must be at least 1")

// ErrQuantityTooLarge is returned when a line quantity would exceed
// MaxQuantity, directly or by merging into an existing line.
var ErrQuantityTooLarge = errors.New("quantity exceeds the per-line maximum")

// ErrCartTooLarge is returned when a change would push the subtotal past
// what uint32 cents can represent.
var ErrCartTooLarge = errors.New("cart subtotal exceeds the representable maximum")

// Cart accumulates the items a customer selected while browsing.  It
// is not safe for concurrent use; each flow owns exactly one cart.
type Cart struct {
    items []Item
}

// New returns an empty cart.
func New() *Cart { return &Cart{} }

// Restore rebuilds a cart from previously snapshotted items, e.g. when
// a checkout flow is loaded back from the session store.
func Restore(items []Item) *Cart {
    c := &Cart{items: make([]Item, len(items))}
    copy(c.items, items)
    return c
}

// Add puts an item into the cart.  Adding a product that is already
// present increases its quantity instead of duplicating the line.
// Quantities are capped at MaxQuantity and the subtotal must stay
// within uint32 cents, so the money arithmetic can never wrap.
func (c *Cart) Add(it Item) error {
    if it.Cantidad == 0 {
        return ErrEmptyQuantity
    }
    if it.Cantidad > MaxQuantity {
        return ErrQuantityTooLarge
    }
    for i := range c.items {
        if c.items[i].ProductID == it.ProductID {
            merged := uint64(c.items[i].Cantidad) + uint64(it.Cantidad)
            if merged > MaxQuantity {
                return ErrQuantityTooLarge
            }
            if c.subtotal()+uint64(c.items[i].PrecioCents)*uint64(it.Cantidad) > math.MaxUint32 {
                return ErrCartTooLarge
            }
            c.items[i].Cantidad = uint32(merged)
            return nil
        }
    }
    if c.subtotal()+uint64(it.PrecioCents)*uint64(it.Cantidad) > math.MaxUint32 {
        return ErrCartTooLarge
    }
    c.items = append(c.items, it)
    return nil
}

// SetQuantity replaces the quantity of a product line.  Unknown
// products are ignored; a zero quantity is rejected (use Remove).
func (c *Cart) SetQuantity(productID uint64, qty uint32) error {
    if qty == 0 {
        return ErrEmptyQuantity
    }
    if qty > MaxQuantity {
        return ErrQuantityTooLarge
    }
    for i := range c.items {
        if c.items[i].ProductID == productID {
            price := uint64(c.items[i].PrecioCents)
            rest := c.subtotal() - price*uint64(c.items[i].Cantidad)
            if rest+price*uint64(qty) > math.MaxUint32 {
                return ErrCartTooLarge
            }
            c.items[i].Cantidad = qty
            return nil
        }
    }
    return nil
}

// Remove deletes a product line from the cart if present.
func (c *Cart) Remove(productID uint64) {
    for i := range c.items {
        if c.items[i].ProductID == productID {
            c.items = append(c.items[:i], c.items[i+1:]...)
            return
        }
    }
}

// Clear empties the cart.
func (c *Cart) Clear() { c.items = nil }

// Empty reports whether the cart has no items.
func (c *Cart) Empty() bool { return len(c.items) == 0 }

// Items returns a copy of the cart lines for snapshotting or order
// creation.
func (c *Cart) Items() []Item {
    out := make([]Item, len(c.items))
    copy(out, c.items)
    return out
}

// subtotal accumulates in uint64; Add and SetQuantity refuse any change
// that would take it past math.MaxUint32.
func (c *Cart) subtotal() uint64 {
    var sum uint64
    for _, it := range c.items {
        sum += uint64(it.PrecioCents) * uint64(it.Cantidad)
    }
    return sum
}

// SubtotalCents sums cantidad*precio over all lines.
func (c *Cart) SubtotalCents() uint32 {
    return uint32(c.subtotal())
}

// Compute derives the money breakdown for the given discount
// percentage (0 when the user has no active discount):
//
//	descuento = subtotal * pct / 100   (integer division, rounds down)
//	total     = subtotal - descuento
//	puntos    = total / 100            (floor of the total)
func (c *Cart) Compute(descuentoPct uint8) Totals {
    sub := c.SubtotalCents()
    disc := uint32(uint64(sub) * uint64(descuentoPct) / 100)
    total := sub - disc
    return Totals{
        SubtotalCents:  sub,
        DescuentoPct:   descuentoPct,
        DescuentoCents: disc,
        TotalCents:     total,
        Puntos:         total / 100,
    }
}
