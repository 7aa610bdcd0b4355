package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/greenspace-sync/internal/model"
)

type update struct {
	productID string
	quantity  int
}

type fakeRemote struct {
	mu      sync.Mutex
	lines   []model.CartLine
	updates []update
	fail    error
}

func (f *fakeRemote) FetchCart(context.Context, string) ([]model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CartLine(nil), f.lines...), nil
}

func (f *fakeRemote) UpdateCartQuantity(_ context.Context, _ string, productID string, quantity int) ([]model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates = append(f.updates, update{productID, quantity})
	if f.fail != nil {
		return nil, f.fail
	}
	out := f.lines[:0:0]
	for _, l := range f.lines {
		if l.ProductID == productID {
			if quantity == 0 {
				continue
			}
			l.Quantity = quantity
		}
		out = append(out, l)
	}
	f.lines = out
	return append([]model.CartLine(nil), out...), nil
}

func (f *fakeRemote) sent() []update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]update(nil), f.updates...)
}

func loadedCart(t *testing.T, remote *fakeRemote, debounce time.Duration) *Cart {
	t.Helper()
	c := New("u1", remote, debounce, zerolog.Nop())
	t.Cleanup(c.Close)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func seed() *fakeRemote {
	return &fakeRemote{lines: []model.CartLine{
		{ProductID: "p1", ProductName: "Fern", Quantity: 1, UnitPrice: 10},
		{ProductID: "p2", ProductName: "Moss", Quantity: 2, UnitPrice: 5},
	}}
}

func TestSetQuantity_appliesLocallyAndDebounces(t *testing.T) {
	remote := seed()
	c := loadedCart(t, remote, 30*time.Millisecond)

	for q := 2; q <= 5; q++ {
		require.NoError(t, c.SetQuantity("p1", q))
	}
	assert.Equal(t, 5, c.Lines()[0].Quantity, "local view updates immediately")
	assert.Equal(t, 60.0, c.Total())
	assert.Empty(t, remote.sent())

	require.Eventually(t, func() bool { return len(remote.sent()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []update{{"p1", 5}}, remote.sent())
	assert.NoError(t, c.Err())
}

func TestSetQuantity_failureRollsBack(t *testing.T) {
	remote := seed()
	c := loadedCart(t, remote, time.Hour)

	require.NoError(t, c.SetQuantity("p2", 9))
	remote.fail = errors.New("out of stock")

	err := c.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "out of stock")
	assert.Equal(t, 2, c.Lines()[1].Quantity, "rolled back to server state")
	assert.Error(t, c.Err())
}

func TestSetQuantity_zeroRemovesLine(t *testing.T) {
	remote := seed()
	c := loadedCart(t, remote, time.Hour)

	require.NoError(t, c.SetQuantity("p1", 0))
	require.Len(t, c.Lines(), 1)

	require.NoError(t, c.SetQuantity("p1", 3), "a removed line can be restored before it is sent")
	require.Len(t, c.Lines(), 2)

	require.NoError(t, c.SetQuantity("p1", 0))
	require.NoError(t, c.Flush(context.Background()))
	assert.Len(t, c.Lines(), 1)
	assert.Equal(t, "p2", c.Lines()[0].ProductID)
}

func TestSetQuantity_validation(t *testing.T) {
	c := loadedCart(t, seed(), time.Hour)

	assert.ErrorIs(t, c.SetQuantity("nope", 1), ErrUnknownProduct)
	assert.Error(t, c.SetQuantity("p1", -1))

	c.Close()
	assert.ErrorIs(t, c.SetQuantity("p1", 1), ErrClosed)
}

func TestFlush_sendsEveryQueuedProductOnce(t *testing.T) {
	remote := seed()
	c := loadedCart(t, remote, time.Hour)

	require.NoError(t, c.SetQuantity("p2", 4))
	require.NoError(t, c.SetQuantity("p1", 7))
	require.NoError(t, c.Flush(context.Background()))
	require.NoError(t, c.Flush(context.Background()))

	assert.Equal(t, []update{{"p1", 7}, {"p2", 4}}, remote.sent())
	assert.Equal(t, 7, c.Lines()[0].Quantity)
}

func TestClose_dropsPendingEdits(t *testing.T) {
	remote := seed()
	c := New("u1", remote, 10*time.Millisecond, zerolog.Nop())
	require.NoError(t, c.Load(context.Background()))

	require.NoError(t, c.SetQuantity("p1", 4))
	c.Close()

	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, remote.sent())
	assert.Equal(t, 1, c.Lines()[0].Quantity)
}
