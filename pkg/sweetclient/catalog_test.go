package sweetclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory stand-in for the sweets backend.
type fakeAPI struct {
	mu     sync.Mutex
	items  []SweetItem
	nextID int64
	bodies []map[string]any
	auth   []string

	listBody   string
	failStatus int
	failBody   string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{nextID: 1}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, New(srv.URL+"/api", NewSessionStore(""))
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.auth = append(f.auth, r.Header.Get("Authorization"))
	if f.failStatus != 0 {
		w.WriteHeader(f.failStatus)
		_, _ = w.Write([]byte(f.failBody))
		return
	}

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body != nil {
		f.bodies = append(f.bodies, body)
	}

	path := strings.TrimPrefix(r.URL.Path, "/api")
	switch {
	case r.Method == http.MethodGet && path == "/sweets":
		if f.listBody != "" {
			_, _ = w.Write([]byte(f.listBody))
			return
		}
		writeJSON(w, http.StatusOK, f.items)
	case r.Method == http.MethodPost && path == "/sweets":
		item := SweetItem{ID: f.nextID, Name: body["name"].(string), Price: body["price"].(float64)}
		if d, ok := body["description"].(string); ok {
			item.Description = &d
		}
		f.nextID++
		f.items = append(f.items, item)
		writeJSON(w, http.StatusCreated, item)
	case strings.HasPrefix(path, "/sweets/"):
		rest := strings.TrimPrefix(path, "/sweets/")
		idStr, action, _ := strings.Cut(rest, "/")
		id, _ := strconv.ParseInt(idStr, 10, 64)
		idx := -1
		for i, it := range f.items {
			if it.ID == id {
				idx = i
			}
		}
		if idx < 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found", "message": "Sweet not found with id: " + idStr})
			return
		}
		switch {
		case action == "purchase":
			q := int(body["quantity"].(float64))
			writeJSON(w, http.StatusOK, PurchaseResult{SweetID: id, SweetName: f.items[idx].Name, TotalAmount: f.items[idx].Price * float64(q), Quantity: q})
		case r.Method == http.MethodPut:
			f.items[idx].Name = body["name"].(string)
			f.items[idx].Price = body["price"].(float64)
			writeJSON(w, http.StatusOK, f.items[idx])
		case r.Method == http.MethodDelete:
			f.items = append(f.items[:idx], f.items[idx+1:]...)
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusOK, f.items[idx])
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCatalog_Refresh(t *testing.T) {
	t.Parallel()

	api, client := newFakeAPI(t)
	api.items = []SweetItem{{ID: 1, Name: "Peda", Price: 20}, {ID: 2, Name: "Barfi", Description: desc(""), Price: 35}}
	api.nextID = 3
	cat := NewCatalog(client)

	var states []State
	unsubscribe := cat.Subscribe(func(st State) { states = append(states, st) })
	defer unsubscribe()

	require.NoError(t, cat.Refresh(context.Background()))

	st := cat.Snapshot()
	require.Len(t, st.Sweets, 2)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, DefaultCategory, st.Sweets[0].Category)
	assert.Nil(t, st.Sweets[1].Description)

	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Loading)
}

func TestCatalog_Refresh_InvalidResponse(t *testing.T) {
	t.Parallel()

	api, client := newFakeAPI(t)
	api.items = []SweetItem{{ID: 1, Name: "Peda", Price: 20}}
	cat := NewCatalog(client)
	require.NoError(t, cat.Refresh(context.Background()))

	api.listBody = `{"sweets":[]}`
	err := cat.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidResponse))

	st := cat.Snapshot()
	assert.Empty(t, st.Sweets)
	assert.Equal(t, "Invalid response format from server", st.Error)
}

func TestCatalog_Refresh_SkipsNullEntries(t *testing.T) {
	t.Parallel()

	api, client := newFakeAPI(t)
	api.listBody = `[null, {"id": 4, "name": "Rasgulla", "price": 15}]`
	cat := NewCatalog(client)

	require.NoError(t, cat.Refresh(context.Background()))
	st := cat.Snapshot()
	require.Len(t, st.Sweets, 1)
	assert.Equal(t, int64(4), st.Sweets[0].ID)
}

func TestCatalog_ErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "message wins", body: `{"error":"Internal Server Error","message":"db is down"}`, want: "db is down"},
		{name: "error only", body: `{"error":"Internal Server Error"}`, want: "Internal Server Error"},
		{name: "no body", body: ``, want: "request failed with status code 500"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api, client := newFakeAPI(t)
			api.failStatus = http.StatusInternalServerError
			api.failBody = tt.body
			cat := NewCatalog(client)

			err := cat.Refresh(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, tt.want, cat.Snapshot().Error)
		})
	}
}

func TestCatalog_Add(t *testing.T) {
	t.Parallel()

	api, client := newFakeAPI(t)
	cat := NewCatalog(client)

	_, err := cat.Add(context.Background(), SweetInput{Name: "Peda"})
	require.Error(t, err)
	assert.Equal(t, "Name and price are required", err.Error())
	assert.Empty(t, api.bodies)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = cat.Add(context.Background(), SweetInput{Name: "Peda", Price: price(bad)})
		assert.EqualError(t, err, "Price must be a valid number")
	}
	assert.Empty(t, api.bodies)

	s, err := cat.Add(context.Background(), SweetInput{
		Name:        "Soan Papdi",
		Description: desc(""),
		Price:       price(0),
		Quantity:    qty(12),
		Category:    "barfi",
		Origin:      "Delhi",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)
	assert.Equal(t, "barfi", s.Category)
	assert.Equal(t, DefaultImage, s.Image)
	assert.Equal(t, "Delhi", s.Origin)
	assert.Equal(t, 12, *s.Quantity)

	require.Len(t, api.bodies, 1)
	assert.Equal(t, map[string]any{"name": "Soan Papdi", "price": 0.0}, api.bodies[0])

	assert.Len(t, cat.Snapshot().Sweets, 1)
}

func TestCatalog_Update(t *testing.T) {
	t.Parallel()

	api, client := newFakeAPI(t)
	cat := NewCatalog(client)
	_, err := cat.Add(context.Background(), SweetInput{Name: "Halwa", Price: price(60), Quantity: qty(5), Category: "halwa", Origin: "Punjab"})
	require.NoError(t, err)

	_, err = cat.Update(context.Background(), 1, SweetPatch{Name: desc("")})
	assert.EqualError(t, err, "Name cannot be empty")

	nan := 0.0
	nan = nan / nan
	_, err = cat.Update(context.Background(), 1, SweetPatch{Price: &nan})
	assert.EqualError(t, err, "Price must be a valid number")

	s, err := cat.Update(context.Background(), 1, SweetPatch{Price: price(75), Image: desc("https://img/halwa.png")})
	require.NoError(t, err)
	assert.Equal(t, "Halwa", s.Name)
	assert.Equal(t, 75.0, s.Price)
	assert.Equal(t, "halwa", s.Category)
	assert.Equal(t, "Punjab", s.Origin)
	assert.Equal(t, "https://img/halwa.png", s.Image)
	assert.Equal(t, 5, *s.Quantity)

	last := api.bodies[len(api.bodies)-1]
	assert.Equal(t, map[string]any{"name": "Halwa", "price": 75.0}, last)

	got, ok := cat.Get(1)
	require.True(t, ok)
	assert.Equal(t, s, got)

	_, err = cat.Update(context.Background(), 42, SweetPatch{Name: desc("x"), Price: price(1)})
	assert.EqualError(t, err, "Sweet not found with id: 42")
}

func TestCatalog_DeleteAndPurchase(t *testing.T) {
	t.Parallel()

	_, client := newFakeAPI(t)
	cat := NewCatalog(client)
	for _, n := range []string{"Jalebi", "Imarti"} {
		_, err := cat.Add(context.Background(), SweetInput{Name: n, Price: price(40)})
		require.NoError(t, err)
	}

	require.NoError(t, cat.Delete(context.Background(), 1))
	st := cat.Snapshot()
	require.Len(t, st.Sweets, 1)
	assert.Equal(t, "Imarti", st.Sweets[0].Name)

	err := cat.Delete(context.Background(), 1)
	assert.EqualError(t, err, "Sweet not found with id: 1")

	res, err := cat.Purchase(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 120.0, res.TotalAmount)
	assert.Len(t, cat.Snapshot().Sweets, 1)
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	t.Parallel()

	api, client := newFakeAPI(t)
	_, err := client.Session().Save(signToken(t, "a", "a@b.c", "USER", time.Hour), "a", "USER")
	require.NoError(t, err)

	api.failStatus = http.StatusUnauthorized
	api.failBody = `{"error":"Unauthorized","message":"invalid or expired token"}`

	_, err = client.ListSweets(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Nil(t, client.Session().Current())

	require.Len(t, api.auth, 1)
	assert.True(t, strings.HasPrefix(api.auth[0], "Bearer "))
}

func TestCatalog_ConcurrentUse(t *testing.T) {
	t.Parallel()

	api, client := newFakeAPI(t)
	api.mu.Lock()
	for i := int64(1); i <= 10; i++ {
		api.items = append(api.items, SweetItem{ID: i, Name: fmt.Sprintf("Seed %d", i), Price: 10})
	}
	api.nextID = 11
	api.mu.Unlock()
	cat := NewCatalog(client)
	require.NoError(t, cat.Refresh(context.Background()))

	var notified atomic.Int64
	unsubscribe := cat.Subscribe(func(State) { notified.Add(1) })
	defer unsubscribe()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(4)
		go func(i int) {
			defer wg.Done()
			_, err := cat.Add(ctx, SweetInput{Name: fmt.Sprintf("Added %d", i), Price: price(float64(i))})
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			assert.NoError(t, cat.Refresh(ctx))
		}()
		go func(id int64) {
			defer wg.Done()
			if id <= 5 {
				assert.NoError(t, cat.Delete(ctx, id))
			}
		}(int64(i + 1))
		go func() {
			defer wg.Done()
			for _, s := range cat.Snapshot().Sweets {
				_, _ = cat.Get(s.ID)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, cat.Refresh(ctx))
	st := cat.Snapshot()
	assert.Len(t, st.Sweets, 15)
	assert.False(t, st.Loading)
	assert.Positive(t, notified.Load())
}
