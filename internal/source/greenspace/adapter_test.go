package greenspace

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/source"
)

func newTestAdapter(t *testing.T, h http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	a := NewAdapter(srv.URL+"/", "tok")
	a.loc = time.UTC
	return a
}

func TestFetchCollection_mapsWireShape(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/WorkTask/contractor/owner-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[
			{"id":"t1","name":"Garden A","status":"Pending","userId":"owner-1",
			 "dateAppointment":"2024-01-10T00:00:00","timeAppointment":"09:00:00",
			 "modificationDate":"2024-01-08T10:00:00","creationDate":"2024-01-07T10:00:00",
			 "serviceOrder":{"id":"o1","orderCode":"SO-1","status":"PaymentSuccess","userName":"Lan","address":"12 Le Loi"}},
			{"id":"t2","status":"Completed","dateAppointment":null,"timeAppointment":null,
			 "modificationDate":null,"creationDate":"2024-01-01T00:00:00Z","serviceOrder":null}
		]`)
	})

	items, err := a.FetchCollection(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "t1", first.ID)
	assert.Equal(t, "Garden A", first.Title)
	assert.Equal(t, "owner-1", first.OwnerID)
	require.NotNil(t, first.Appointment)
	assert.Equal(t, model.Appointment{Date: "2024-01-10", Time: "09:00:00"}, *first.Appointment)
	assert.Equal(t, time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), first.ModifiedAt)
	require.NotNil(t, first.RelatedOrder)
	assert.Equal(t, "PaymentSuccess", first.RelatedOrder.Status)
	assert.Equal(t, "Lan", first.CustomerName)

	second := items[1]
	assert.Nil(t, second.Appointment)
	assert.Nil(t, second.RelatedOrder)
	assert.True(t, second.ModifiedAt.IsZero())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), second.LastChanged())
}

func TestMutate_sendsPartialPatch(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/WorkTask/t1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"status": "Installing"}, body)

		_, _ = io.WriteString(w, `{"id":"t1","status":"Installing"}`)
	})

	item, err := a.Mutate(context.Background(), "t1", model.StatusPatch("Installing"))
	require.NoError(t, err)
	assert.Equal(t, "Installing", item.Status)
}

func TestMutate_noContentEchoesPatch(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	item, err := a.Mutate(context.Background(), "t1", model.StatusPatch("DoneInstalling"))
	require.NoError(t, err)
	assert.Equal(t, "t1", item.ID)
	assert.Equal(t, "DoneInstalling", item.Status)
}

func TestMutate_validationError(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"title":"One or more validation errors occurred.",
			"errors":{"status":["invalid status"],"date":["required"]}}`)
	})

	_, err := a.Mutate(context.Background(), "t1", model.StatusPatch("Bogus"))
	require.Error(t, err)
	assert.True(t, source.IsValidationError(err))
	assert.False(t, source.IsNetworkError(err))

	var valErr *source.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, []string{"date: required", "status: invalid status"}, valErr.Messages)
}

func TestClient_errorMapping(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		check func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, source.IsAuthError},
		{"server error", http.StatusBadGateway, source.IsNetworkError},
		{"conflict", http.StatusConflict, source.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
			})
			_, err := a.FetchCollection(context.Background(), "o")
			require.Error(t, err)
			assert.True(t, tt.check(err), "%v", err)
		})
	}
}

func TestClient_transportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	a := NewAdapter(srv.URL, "")
	srv.Close()

	_, err := a.FetchCollection(context.Background(), "o")
	require.Error(t, err)
	assert.True(t, source.IsNetworkError(err))
}

func TestClient_retriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	items, err := a.FetchCollection(context.Background(), "o")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUpdateOrderStatus(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ServiceOrder/o1/status", r.URL.Path)
		var body OrderStatusUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Installing", body.Status)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, a.UpdateOrderStatus(context.Background(), "o1", "Installing"))
}

func TestNotificationsAndCart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/Notification/user/u1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"n1","userId":"u1","title":"Đơn mới","description":"Mã đơn : abc",
			"isSeen":false,"createdDate":"2024-01-10T08:00:00"}]`)
	})
	mux.HandleFunc("PUT /api/Notification/n1/seen", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/Cart/u1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"userId":"u1","cartItems":[{"productId":"p1","productName":"Fern","quantity":2,"price":1.5}]}`)
	})
	mux.HandleFunc("PUT /api/Cart/u1", func(w http.ResponseWriter, r *http.Request) {
		var body CartItemUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(Cart{Items: []CartItem{{ProductID: body.ProductID, Quantity: body.Quantity, Price: 1.5}}})
	})
	a := newTestAdapter(t, mux.ServeHTTP)
	ctx := context.Background()

	notes, err := a.FetchNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Mã đơn : abc", notes[0].Content)
	assert.False(t, notes[0].IsSeen)

	require.NoError(t, a.MarkNotificationSeen(ctx, "n1"))

	lines, err := a.FetchCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3.0, lines[0].Total())

	lines, err = a.UpdateCartQuantity(ctx, "u1", "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, lines[0].Quantity)
}
