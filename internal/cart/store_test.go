package cart

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/ariefcatur/go-storefront-core/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMirror struct {
	m     sync.Mutex
	calls []RemoteAdd
	err   error
}

func (m *mockMirror) MirrorAdd(_ context.Context, add RemoteAdd) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, add)
	return m.err
}

func (m *mockMirror) Calls() []RemoteAdd {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]RemoteAdd(nil), m.calls...)
}

func item(productID, size, color string, qty int) LineItem {
	return LineItem{
		ProductID: productID,
		Name:      "Product " + productID,
		Price:     decimal.RequireFromString("10.50"),
		Quantity:  qty,
		Size:      size,
		Color:     color,
	}
}

func TestAddItem_MergesSameIdentity(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	_, err := s.AddItem(ctx, item("p1", "M", "Red", 1))
	require.NoError(t, err)
	merged, err := s.AddItem(ctx, item("p1", "M", "Red", 2))
	require.NoError(t, err)

	assert.Equal(t, 3, merged.Quantity)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, DeriveIdentity("p1", "M", "Red"), merged.Key)
}

func TestAddItem_VariantsAreSeparateLines(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	for _, it := range []LineItem{
		item("p1", "M", "Red", 1),
		item("p1", "", "Red", 1),
		item("p1", "M", "", 1),
		item("p2", "", "", 1),
	} {
		_, err := s.AddItem(ctx, it)
		require.NoError(t, err)
	}

	items := s.Items()
	require.Len(t, items, 4)
	assert.Equal(t, "M", items[0].Size)
	assert.Equal(t, "", items[1].Size)
	assert.Equal(t, "", items[2].Color)
	assert.Equal(t, "p2", items[3].ProductID)
}

func TestAddItem_IgnoresCallerKey(t *testing.T) {
	s := NewStore(nil)
	it := item("p1", "M", "", 1)
	it.Key = "forged"

	got, err := s.AddItem(context.Background(), it)
	require.NoError(t, err)

	assert.Equal(t, DeriveIdentity("p1", "M", ""), got.Key)
	_, ok := s.Get("forged")
	assert.False(t, ok)
}

func TestAddItem_RejectsBadItems(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	_, err := s.AddItem(ctx, item("p1", "", "", 0))
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = s.AddItem(ctx, item("", "", "", 1))
	assert.ErrorIs(t, err, ErrMissingProduct)
	assert.Equal(t, 0, s.Len())
}

func TestAddItem_UniquenessOverRandomSequence(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	products := []string{"p1", "p2", "p|3"}
	sizes := []string{"", "S", "M"}
	colors := []string{"", "Red", "Blue|Green"}
	want := map[Key]int{}

	for i := 0; i < 500; i++ {
		it := item(products[rng.Intn(3)], sizes[rng.Intn(3)], colors[rng.Intn(3)], 1+rng.Intn(4))
		want[it.Identity()] += it.Quantity
		_, err := s.AddItem(ctx, it)
		require.NoError(t, err)
	}

	items := s.Items()
	assert.Len(t, items, len(want))
	seen := map[Key]bool{}
	for _, it := range items {
		assert.False(t, seen[it.Key], "duplicate key %q", it.Key)
		seen[it.Key] = true
		assert.Equal(t, want[it.Key], it.Quantity)
	}
}

func TestRemoveItem(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	_, _ = s.AddItem(ctx, item("p1", "", "", 1))
	_, _ = s.AddItem(ctx, item("p2", "", "", 1))
	_, _ = s.AddItem(ctx, item("p3", "", "", 1))

	assert.True(t, s.RemoveItem(ctx, DeriveIdentity("p2", "", "")))
	assert.False(t, s.RemoveItem(ctx, DeriveIdentity("p2", "", "")))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, "p3", items[1].ProductID)

	// index stays consistent after removal
	merged, _ := s.AddItem(ctx, item("p3", "", "", 2))
	assert.Equal(t, 3, merged.Quantity)
	assert.Equal(t, 2, s.Len())
}

func TestClearCart_Idempotent(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	_, _ = s.AddItem(ctx, item("p1", "", "", 2))

	s.ClearCart(ctx)
	assert.Empty(t, s.Items())
	s.ClearCart(ctx)
	assert.Empty(t, s.Items())
	assert.True(t, s.Subtotal().IsZero())
}

func TestItems_ReturnsCopy(t *testing.T) {
	s := NewStore(nil)
	_, _ = s.AddItem(context.Background(), item("p1", "", "", 1))

	items := s.Items()
	items[0].Quantity = 99

	got, _ := s.Get(DeriveIdentity("p1", "", ""))
	assert.Equal(t, 1, got.Quantity)
}

func TestSubtotalAndQuantity(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	_, _ = s.AddItem(ctx, item("p1", "", "", 2))
	_, _ = s.AddItem(ctx, item("p2", "L", "", 1))

	assert.Equal(t, 3, s.Quantity())
	assert.Equal(t, "31.5", s.Subtotal().String())
}

func TestNewStore_RepairsSeed(t *testing.T) {
	s := NewStore([]LineItem{
		item("p1", "M", "", 1),
		item("p1", "M", "", 2),
		item("p2", "", "", 0),
	})

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestMirror_OnlyWithShopperSession(t *testing.T) {
	mirror := &mockMirror{}
	s := NewStore(nil, WithMirror(mirror))

	_, err := s.AddItem(context.Background(), item("p1", "", "", 1))
	require.NoError(t, err)
	s.Wait()
	assert.Empty(t, mirror.Calls())

	ctx := session.WithShopper(context.Background(), "token")
	_, err = s.AddItem(ctx, item("p1", "M", "Red", 2))
	require.NoError(t, err)
	s.Wait()

	require.Len(t, mirror.Calls(), 1)
	assert.Equal(t, RemoteAdd{ProductID: "p1", Quantity: 2, Size: "M", Color: "Red"}, mirror.Calls()[0])
}

func TestMirror_FailureKeepsLocalState(t *testing.T) {
	mirror := &mockMirror{err: errors.New("backend down")}
	s := NewStore(nil, WithMirror(mirror))
	ctx := session.WithShopper(context.Background(), "token")

	_, err := s.AddItem(ctx, item("p1", "", "", 1))
	require.NoError(t, err)
	_, err = s.AddItem(ctx, item("p1", "", "", 1))
	require.NoError(t, err)
	s.Wait()

	assert.Len(t, mirror.Calls(), 2)
	got, ok := s.Get(DeriveIdentity("p1", "", ""))
	require.True(t, ok)
	assert.Equal(t, 2, got.Quantity)
}

func TestMirror_SurvivesCancelledRequest(t *testing.T) {
	mirror := &mockMirror{}
	s := NewStore(nil, WithMirror(mirror))
	ctx, cancel := context.WithCancel(session.WithShopper(context.Background(), "token"))

	_, err := s.AddItem(ctx, item("p1", "", "", 1))
	cancel()
	require.NoError(t, err)
	s.Wait()

	assert.Len(t, mirror.Calls(), 1)
}

func TestOnChange_SeesEveryMutation(t *testing.T) {
	var snapshots [][]LineItem
	s := NewStore(nil, WithOnChange(func(items []LineItem) {
		snapshots = append(snapshots, items)
	}))
	ctx := context.Background()

	_, _ = s.AddItem(ctx, item("p1", "", "", 1))
	_, _ = s.AddItem(ctx, item("p1", "", "", 1))
	s.RemoveItem(ctx, DeriveIdentity("p1", "", ""))
	s.ClearCart(ctx)

	require.Len(t, snapshots, 4)
	assert.Equal(t, 1, snapshots[0][0].Quantity)
	assert.Equal(t, 2, snapshots[1][0].Quantity)
	assert.Empty(t, snapshots[2])
	assert.Empty(t, snapshots[3])
}
