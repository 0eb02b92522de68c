package session

import (
	"context"
	"os"
	"testing"
	"time"

	"feastfleet/geo"
	"feastfleet/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dal  = models.MenuItem{ID: "item1", RestaurantID: "rest1", Name: "Dal", Price: 120}
	roti = models.MenuItem{ID: "item2", RestaurantID: "rest1", Name: "Roti", Price: 20.5}
	taco = models.MenuItem{ID: "item9", RestaurantID: "rest2", Name: "Taco", Price: 90}
)

func TestCart(t *testing.T) {
	s := New("user1")
	require.NoError(t, s.AddItem(dal, "Spice Route"))
	require.NoError(t, s.AddItem(roti, "Spice Route"))
	require.NoError(t, s.AddItem(dal, "Spice Route"))

	require.Len(t, s.Cart.Lines, 2)
	assert.Equal(t, 2, s.Cart.Lines[0].Quantity)
	assert.Equal(t, "rest1", s.Cart.RestaurantID)
	assert.Equal(t, "Spice Route", s.Cart.RestaurantName)
	assert.Equal(t, 3, s.ItemCount())
	assert.Equal(t, 260.5, s.CartTotal())

	err := s.AddItem(taco, "Taco Town")
	assert.ErrorIs(t, err, ErrMixedRestaurant)
	assert.Len(t, s.Cart.Lines, 2)

	assert.True(t, s.RemoveItem("item1"))
	assert.False(t, s.RemoveItem("item1"))
	assert.True(t, s.RemoveItem("item2"))
	assert.Empty(t, s.Cart.Lines)
	assert.Empty(t, s.Cart.RestaurantID)

	// an emptied cart accepts any restaurant again
	require.NoError(t, s.AddItem(taco, "Taco Town"))
	s.ClearCart()
	assert.Zero(t, s.CartTotal())
}

func TestAdvanceProgress(t *testing.T) {
	s := New("user1")
	assert.Equal(t, geo.ProgressStart, s.AdvanceProgress("order1"))
	assert.InDelta(t, 0.12, s.AdvanceProgress("order1"), 1e-9)
	assert.Equal(t, geo.ProgressStart, s.AdvanceProgress("order2"))
}

func exerciseStore(t *testing.T, st Store) {
	ctx := context.Background()

	fresh, err := st.Load(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, fresh.Cart.Lines)

	_, err = st.Update(ctx, "user1", func(s *Session) error { return s.AddItem(dal, "Spice Route") })
	require.NoError(t, err)

	// a failing update leaves the stored session alone
	_, err = st.Update(ctx, "user1", func(s *Session) error {
		s.ClearCart()
		return errors.New("boom")
	})
	require.Error(t, err)

	got, err := st.Load(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, got.Cart.Lines, 1)
	assert.Equal(t, "item1", got.Cart.Lines[0].ID)

	// mutating a loaded copy does not leak back
	got.Cart.Lines[0].Quantity = 99
	again, err := st.Load(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Cart.Lines[0].Quantity)

	require.NoError(t, st.Delete(ctx, "user1"))
	gone, err := st.Load(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, gone.Cart.Lines)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	exerciseStore(t, NewRedisStore(rdb, time.Minute))
}
