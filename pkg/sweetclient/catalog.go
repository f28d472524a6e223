package sweetclient

import (
	"context"
	"math"
	"strings"
	"sync"
)

const (
	msgLoadFailed     = "Failed to load sweets"
	msgAddFailed      = "Failed to add sweet"
	msgUpdateFailed   = "Failed to update sweet"
	msgDeleteFailed   = "Failed to delete sweet"
	msgPurchaseFailed = "Failed to purchase sweet"
)

// Error is a catalog operation failure with the message to show the user.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func opError(err error, fallback string) *Error {
	return &Error{Message: ErrorMessage(err, fallback), Err: err}
}

// State is a point-in-time copy of the catalog.
type State struct {
	Sweets  []Sweet
	Loading bool
	Error   string
}

// SweetInput is a new catalog entry. Price is a pointer so that a missing price can be told from zero.
type SweetInput struct {
	Name        string
	Description *string
	Price       *float64

	Quantity *int
	Category string
	Image    string
	Origin   string
}

// SweetPatch changes an existing entry. Nil fields are left as they are.
type SweetPatch struct {
	Name        *string
	Description *string
	Price       *float64

	Quantity *int
	Category *string
	Image    *string
	Origin   *string
}

// Catalog holds the sweets list and notifies subscribers whenever it changes.
type Catalog struct {
	client *Client

	mu      sync.RWMutex
	sweets  []Sweet
	loading bool
	err     string

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

func NewCatalog(client *Client) *Catalog {
	return &Catalog{client: client, subs: map[int]func(State){}}
}

// Subscribe registers fn for change notifications and returns a function that removes it.
func (c *Catalog) Subscribe(fn func(State)) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Catalog) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Catalog) Get(id int64) (Sweet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.sweets {
		if s.ID == id {
			return s, true
		}
	}
	return Sweet{}, false
}

// Refresh reloads the list. On failure the list is emptied and the error message kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.update(func() {
		c.loading = true
		c.err = ""
	})

	items, err := c.client.ListSweets(ctx)
	if err != nil {
		e := opError(err, msgLoadFailed)
		c.update(func() {
			c.sweets = nil
			c.err = e.Message
			c.loading = false
		})
		return e
	}

	sweets := make([]Sweet, 0, len(items))
	for _, it := range items {
		sweets = append(sweets, ToSweet(it))
	}
	c.update(func() {
		c.sweets = sweets
		c.loading = false
	})
	return nil
}

// Add creates the sweet on the backend and appends it, keeping the caller's client-only fields.
func (c *Catalog) Add(ctx context.Context, in SweetInput) (Sweet, error) {
	if in.Name == "" || in.Price == nil {
		return Sweet{}, &Error{Message: "Name and price are required"}
	}
	if !validPrice(*in.Price) {
		return Sweet{}, &Error{Message: "Price must be a valid number"}
	}

	created, err := c.client.CreateSweet(ctx, ToSweetItem(Sweet{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
	}))
	if err != nil {
		return Sweet{}, opError(err, msgAddFailed)
	}

	s := ToSweet(*created)
	if in.Category != "" {
		s.Category = in.Category
	}
	if in.Image != "" {
		s.Image = in.Image
	}
	if in.Origin != "" {
		s.Origin = in.Origin
	}
	if in.Quantity != nil {
		q := *in.Quantity
		s.Quantity = &q
	}

	c.update(func() { c.sweets = append(c.sweets, s) })
	return s, nil
}

// Update sends the backend fields and keeps client-only fields from the patch or, failing that, the existing entry.
// Backend fields missing from the patch are filled from the existing entry.
func (c *Catalog) Update(ctx context.Context, id int64, p SweetPatch) (Sweet, error) {
	if p.Name != nil && *p.Name == "" {
		return Sweet{}, &Error{Message: "Name cannot be empty"}
	}
	if p.Price != nil && !validPrice(*p.Price) {
		return Sweet{}, &Error{Message: "Price must be a valid number"}
	}

	existing, found := c.Get(id)
	item := ToSweetItem(existing)
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = normalizeDescription(p.Description)
	}
	if p.Price != nil {
		item.Price = *p.Price
	}

	updated, err := c.client.UpdateSweet(ctx, id, item)
	if err != nil {
		return Sweet{}, opError(err, msgUpdateFailed)
	}

	s := ToSweet(*updated)
	if found {
		s.Category = firstString(p.Category, existing.Category)
		s.Image = firstString(p.Image, existing.Image)
		s.Origin = firstString(p.Origin, existing.Origin)
		s.Quantity = existing.Quantity
	}
	if p.Quantity != nil {
		q := *p.Quantity
		s.Quantity = &q
	}

	c.update(func() {
		for i := range c.sweets {
			if c.sweets[i].ID == id {
				c.sweets[i] = s
			}
		}
	})
	return s, nil
}

func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if err := c.client.DeleteSweet(ctx, id); err != nil {
		return opError(err, msgDeleteFailed)
	}

	c.update(func() {
		kept := c.sweets[:0]
		for _, s := range c.sweets {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		c.sweets = kept
	})
	return nil
}

// Purchase buys quantity units and then reloads the list.
func (c *Catalog) Purchase(ctx context.Context, id int64, quantity int) (*PurchaseResult, error) {
	res, err := c.client.PurchaseSweet(ctx, id, quantity)
	if err != nil {
		return nil, opError(err, msgPurchaseFailed)
	}
	return res, c.Refresh(ctx)
}

// update applies fn under the write lock and then notifies subscribers outside of it.
func (c *Catalog) update(fn func()) {
	c.mu.Lock()
	fn()
	st := c.snapshotLocked()
	c.mu.Unlock()

	c.subMu.Lock()
	subs := make([]func(State), 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.subMu.Unlock()

	for _, s := range subs {
		s(st)
	}
}

func (c *Catalog) snapshotLocked() State {
	sweets := make([]Sweet, len(c.sweets))
	copy(sweets, c.sweets)
	return State{Sweets: sweets, Loading: c.loading, Error: c.err}
}

func firstString(p *string, def string) string {
	if p != nil && strings.TrimSpace(*p) != "" {
		return *p
	}
	return def
}

func validPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
