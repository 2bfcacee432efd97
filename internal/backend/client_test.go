package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geleverd/geleverd-web/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(ts.Close)

	return NewClient(ts.URL, time.Second), &calls
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLogin_OK(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/admin/login" {
			t.Fatalf("path = %s, want /api/admin/login", r.URL.Path)
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Username != "admin" || req.Password != "admin123" {
			t.Fatalf("unexpected credentials: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok1","token_type":"bearer","user":{"username":"admin","email":"admin@x.nl","role":"admin"}}`))
	})

	s, err := client.Login(testCtx(t), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "tok1", s.Token)
	assert.Equal(t, model.User{Username: "admin", Email: "admin@x.nl", Role: "admin"}, s.User)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	})

	_, err := client.Login(testCtx(t), "admin", "wrong")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Incorrect username or password", authErr.Detail)
	assert.False(t, IsUnauthorized(err))
}

func TestLogin_EmptyFieldsNeverCallBackend(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		username string
		password string
		field    string
	}{
		{name: "no username", username: "", password: "secret", field: "username"},
		{name: "no password", username: "admin", password: "", field: "password"},
		{name: "both empty", username: "", password: "", field: "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Login(testCtx(t), tt.username, tt.password)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestListOrders_QueryParameters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{
			name:   "empty filter omits parameters",
			filter: Filter{},
			want:   "",
		},
		{
			name:   "search and status included verbatim",
			filter: Filter{Search: "TR123", Status: model.OrderStatusDelivered},
			want:   "search=TR123&status=delivered",
		},
		{
			name:   "limit only",
			filter: Filter{Limit: 5},
			want:   "limit=5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/orders", r.URL.Path)
				assert.Equal(t, tt.want, r.URL.RawQuery)
				assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(`[]`))
			})

			orders, err := client.ListOrders(testCtx(t), "tok1", tt.filter)
			require.NoError(t, err)
			assert.NotNil(t, orders)
			assert.Empty(t, orders)
		})
	}
}

func TestListOrders_PreservesServerOrder(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"2","tracking_number":"TRBBBBBB","status":"pending","price":12.5,"created_at":"2026-10-16T10:00:00Z"},
			{"id":"1","tracking_number":"TRAAAAAA","status":"delivered","price":40,"distance":12.3,"created_at":"2026-10-15T10:00:00Z"}
		]`))
	})

	orders, err := client.ListOrders(testCtx(t), "tok1", Filter{})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "TRBBBBBB", orders[0].TrackingNumber)
	assert.Equal(t, "TRAAAAAA", orders[1].TrackingNumber)
	require.NotNil(t, orders[1].Distance)
	assert.Equal(t, 12.3, *orders[1].Distance)
}

func TestAuthenticatedCalls_Unauthorized(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})

		_, err := client.ListOrders(testCtx(t), "expired", Filter{})
		assert.True(t, IsUnauthorized(err), "status %d", code)

		_, err = client.GetDashboardStats(testCtx(t), "expired")
		assert.True(t, IsUnauthorized(err), "status %d", code)

		_, err = client.CurrentAdmin(testCtx(t), "expired")
		assert.True(t, IsUnauthorized(err), "status %d", code)
	}
}

func TestServiceError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"boom"}`))
	})

	_, err := client.GetDashboardStats(testCtx(t), "tok1")

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "boom", se.Detail)
	assert.False(t, IsUnauthorized(err))
}

func TestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	client := NewClient(url, time.Second)

	_, err := client.ListOrders(testCtx(t), "tok1", Filter{})

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestCalculatePrice_OK(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders/calculate-price", r.URL.Path)
		assert.Equal(t, "Amsterdam", r.URL.Query().Get("pickup_address"))
		assert.Equal(t, "Utrecht", r.URL.Query().Get("delivery_address"))
		assert.Equal(t, "bestelbus", r.URL.Query().Get("vehicle_type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"base_price":35,"distance_price":22.75,"total_price":57.75,"estimated_time":"1-2 uur","distance":45.5,"vehicle_type":"bestelbus"}`))
	})

	q, err := client.CalculatePrice(testCtx(t), "Amsterdam", "Utrecht", model.VehicleBestelbus)
	require.NoError(t, err)
	assert.Equal(t, 57.75, q.TotalPrice)
	assert.Equal(t, "1-2 uur", q.EstimatedTime)
}

func TestCalculatePrice_ValidationNeverCallsBackend(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.CalculatePrice(testCtx(t), "", "Utrecht", model.VehicleBakwagen)
	assert.True(t, IsValidation(err))

	_, err = client.CalculatePrice(testCtx(t), "Amsterdam", "", model.VehicleBakwagen)
	assert.True(t, IsValidation(err))

	_, err = client.CalculatePrice(testCtx(t), "Amsterdam", "Utrecht", "")
	assert.True(t, IsValidation(err))

	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestCalculatePrice_ServiceErrorWithoutToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.CalculatePrice(testCtx(t), "Amsterdam", "Utrecht", model.VehicleBestelauto)

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.False(t, IsUnauthorized(err))
}

func TestTrackOrder_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/track/TR0000AA", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Order not found"}`))
	})

	_, err := client.TrackOrder(testCtx(t), "TR0000AA")

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
}

func TestNewClient_AddsScheme(t *testing.T) {
	c := NewClient("localhost:8001/", 0)
	assert.Equal(t, "http://localhost:8001", c.baseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}
