// Package cart keeps an optimistic local copy of the customer's cart and
// reconciles quantity edits with the server.
package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/greenspace-sync/internal/model"
)

// DefaultDebounce is how long quantity edits to one product are coalesced
// before the server is updated.
const DefaultDebounce = 500 * time.Millisecond

const mutationTimeout = 30 * time.Second

var (
	// ErrUnknownProduct is returned for edits to products not in the cart.
	ErrUnknownProduct = errors.New("product not in cart")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("cart closed")
)

// Remote is the subset of the API the cart needs. Both calls return the
// server's view of the whole cart.
type Remote interface {
	FetchCart(ctx context.Context, userID string) ([]model.CartLine, error)
	UpdateCartQuantity(ctx context.Context, userID, productID string, quantity int) ([]model.CartLine, error)
}

// Cart applies quantity edits locally at once and sends them to the
// server after a per-product debounce. A failed update rolls the local
// view back to the last state the server confirmed.
type Cart struct {
	userID   string
	remote   Remote
	debounce time.Duration
	log      zerolog.Logger

	// sendMu serializes server mutations so responses apply in order.
	sendMu sync.Mutex

	mu      sync.Mutex
	server  []model.CartLine
	local   []model.CartLine
	queued  map[string]int
	timers  map[string]*time.Timer
	lastErr error
	closed  bool
}

// New creates an empty Cart for userID. debounce <= 0 selects
// DefaultDebounce.
func New(userID string, remote Remote, debounce time.Duration, logger zerolog.Logger) *Cart {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Cart{
		userID:   userID,
		remote:   remote,
		debounce: debounce,
		log:      logger.With().Str("component", "cart").Logger(),
		queued:   make(map[string]int),
		timers:   make(map[string]*time.Timer),
	}
}

// Load replaces the cart with the server's copy.
func (c *Cart) Load(ctx context.Context) error {
	lines, err := c.remote.FetchCart(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("loading cart: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.server = lines
	c.local = c.withQueuedLocked(lines)
	c.lastErr = nil
	return nil
}

// Lines returns the local view of the cart.
func (c *Cart) Lines() []model.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.local)
}

// Total returns the sum of the local line totals.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.Lines() {
		total += l.Total()
	}
	return total
}

// Err returns the error of the last failed update, cleared by the next
// successful one.
func (c *Cart) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SetQuantity changes a product's quantity locally and schedules the
// server update. A quantity of zero removes the line.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity must not be negative, got %d", quantity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !slices.ContainsFunc(c.server, func(l model.CartLine) bool { return l.ProductID == productID }) {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}

	c.queued[productID] = quantity
	c.local = c.withQueuedLocked(c.server)

	if t, ok := c.timers[productID]; ok {
		t.Reset(c.debounce)
		return nil
	}
	c.timers[productID] = time.AfterFunc(c.debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		if err := c.send(ctx, productID); err != nil {
			c.log.Warn().Err(err).Str("product", productID).Msg("cart update failed")
		}
	})
	return nil
}

// Flush sends every queued edit now and returns the joined errors.
func (c *Cart) Flush(ctx context.Context) error {
	c.mu.Lock()
	ids := make([]string, 0, len(c.queued))
	for id := range c.queued {
		ids = append(ids, id)
		if t, ok := c.timers[id]; ok {
			t.Stop()
			delete(c.timers, id)
		}
	}
	c.mu.Unlock()
	slices.Sort(ids)

	var errs []error
	for _, id := range ids {
		if err := c.send(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops pending timers. Queued edits that were not flushed are
// dropped.
func (c *Cart) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	clear(c.queued)
	c.local = slices.Clone(c.server)
}

// send pushes the queued quantity for productID to the server.
func (c *Cart) send(ctx context.Context, productID string) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	quantity, ok := c.queued[productID]
	delete(c.queued, productID)
	delete(c.timers, productID)
	closed := c.closed
	c.mu.Unlock()

	if !ok || closed {
		return nil
	}

	lines, err := c.remote.UpdateCartQuantity(ctx, c.userID, productID, quantity)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.lastErr = fmt.Errorf("updating %s to %d: %w", productID, quantity, err)
		c.local = c.withQueuedLocked(c.server)
		return c.lastErr
	}

	c.server = lines
	c.local = c.withQueuedLocked(lines)
	c.lastErr = nil
	return nil
}

// withQueuedLocked returns base with the still-queued edits applied.
func (c *Cart) withQueuedLocked(base []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, 0, len(base))
	for _, l := range base {
		if q, ok := c.queued[l.ProductID]; ok {
			if q == 0 {
				continue
			}
			l.Quantity = q
		}
		out = append(out, l)
	}
	return out
}
