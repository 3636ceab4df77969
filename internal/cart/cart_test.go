package cart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddMergesByProduct(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(Item{ProductID: 1, Nombre: "Lomo saltado", PrecioCents: 3500, Cantidad: 1}))
	require.NoError(t, c.Add(Item{ProductID: 1, Nombre: "Lomo saltado", PrecioCents: 3500, Cantidad: 2}))
	items := c.Items()
	require.Len(t, items, 1)
	require.Equal(t, uint32(3), items[0].Cantidad)
}

func TestAddRejectsZeroQuantity(t *testing.T) {
	c := New()
	require.ErrorIs(t, c.Add(Item{ProductID: 1, PrecioCents: 100}), ErrEmptyQuantity)
	require.True(t, c.Empty())
}

func TestSetQuantityAndRemove(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(Item{ProductID: 1, PrecioCents: 1000, Cantidad: 1}))
	require.NoError(t, c.Add(Item{ProductID: 2, PrecioCents: 500, Cantidad: 4}))

	require.NoError(t, c.SetQuantity(1, 3))
	require.Equal(t, uint32(3*1000+4*500), c.SubtotalCents())

	require.ErrorIs(t, c.SetQuantity(2, 0), ErrEmptyQuantity)

	c.Remove(2)
	require.Equal(t, uint32(3000), c.SubtotalCents())
	c.Remove(99) // unknown product is a no-op
	require.Len(t, c.Items(), 1)
}

func TestComputeWithoutDiscount(t *testing.T) {
	// cart = [{p1, 25.00, x2}], no discount -> subtotal 50.00, total 50.00, 50 points
	c := New()
	require.NoError(t, c.Add(Item{ProductID: 1, Nombre: "p1", PrecioCents: 2500, Cantidad: 2}))

	tot := c.Compute(0)
	require.Equal(t, uint32(5000), tot.SubtotalCents)
	require.Equal(t, uint32(0), tot.DescuentoCents)
	require.Equal(t, uint32(5000), tot.TotalCents)
	require.Equal(t, uint32(50), tot.Puntos)
}

func TestComputeWithDiscount(t *testing.T) {
	// same cart, 20% off -> discount 10.00, total 40.00, 40 points
	c := New()
	require.NoError(t, c.Add(Item{ProductID: 1, Nombre: "p1", PrecioCents: 2500, Cantidad: 2}))

	tot := c.Compute(20)
	require.Equal(t, uint32(5000), tot.SubtotalCents)
	require.Equal(t, uint32(1000), tot.DescuentoCents)
	require.Equal(t, uint32(4000), tot.TotalCents)
	require.Equal(t, uint32(40), tot.Puntos)
}

func TestComputeRoundsDiscountDown(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(Item{ProductID: 1, PrecioCents: 333, Cantidad: 1}))

	tot := c.Compute(10) // 33.3 -> 33
	require.Equal(t, uint32(33), tot.DescuentoCents)
	require.Equal(t, uint32(300), tot.TotalCents)
	require.Equal(t, uint32(3), tot.Puntos)
}

func TestRestoreCopiesItems(t *testing.T) {
	snap := []Item{{ProductID: 1, PrecioCents: 100, Cantidad: 2}}
	c := Restore(snap)
	snap[0].Cantidad = 99
	require.Equal(t, uint32(200), c.SubtotalCents())
}

func TestAddRejectsOversizedQuantity(t *testing.T) {
	c := New()
	require.ErrorIs(t, c.Add(Item{ProductID: 1, PrecioCents: 2500, Cantidad: 1717987}), ErrQuantityTooLarge)
	require.True(t, c.Empty())

	// Merging past the cap is rejected and leaves the line untouched.
	require.NoError(t, c.Add(Item{ProductID: 2, PrecioCents: 100, Cantidad: 900}))
	require.ErrorIs(t, c.Add(Item{ProductID: 2, PrecioCents: 100, Cantidad: 100}), ErrQuantityTooLarge)
	require.Equal(t, uint32(90000), c.SubtotalCents())

	require.ErrorIs(t, c.SetQuantity(2, MaxQuantity+1), ErrQuantityTooLarge)
	require.Equal(t, uint32(90000), c.SubtotalCents())
}

func TestSubtotalCannotWrap(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(Item{ProductID: 1, PrecioCents: math.MaxUint32, Cantidad: 1}))

	// One more cent would wrap uint32; every mutation path refuses it.
	require.ErrorIs(t, c.Add(Item{ProductID: 2, PrecioCents: 1, Cantidad: 1}), ErrCartTooLarge)
	require.ErrorIs(t, c.Add(Item{ProductID: 1, PrecioCents: math.MaxUint32, Cantidad: 1}), ErrCartTooLarge)
	require.ErrorIs(t, c.SetQuantity(1, 2), ErrCartTooLarge)

	require.Equal(t, uint32(math.MaxUint32), c.SubtotalCents())
	tot := c.Compute(0)
	require.Equal(t, uint32(math.MaxUint32), tot.TotalCents)
}
