package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-api/internal/domain"
)

const (
	menuA   = "6f1c3c4e-1111-4a5b-9c7d-0123456789ab"
	orderID = "0b9d1f2e-2222-4c3d-8e9f-abcdefabcdef"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "anon", "service")
}

func TestClient_FetchMenuItemsByIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/menu_items", r.URL.Path)
		assert.Equal(t, `in.("`+menuA+`")`, r.URL.Query().Get("id"))
		assert.Equal(t, "service", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"id":"`+menuA+`","name":"Margherita","price":5.00,"category":"pizza","available":true}]`)
	})

	items, err := c.FetchMenuItemsByIDs(context.Background(), []string{menuA, "Z"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("5")))
	assert.Equal(t, "pizza", items[0].Category)
}

func TestClient_FetchMenuItemsByIDs_OnlyMalformedSkipsCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	})
	items, err := c.FetchMenuItemsByIDs(context.Background(), []string{"Z"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClient_InsertOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		var body []map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if !assert.Len(t, body, 1) {
			return
		}
		assert.Equal(t, "Jo", body[0]["customer_name"])
		assert.Equal(t, 13.5, body[0]["total_amount"])
		assert.Nil(t, body[0]["customer_email"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"`+orderID+`"}]`)
	})

	id, err := c.InsertOrder(context.Background(), &domain.Order{
		CustomerName:  "Jo",
		CustomerPhone: "+15551234567",
		PickupTime:    time.Now().Add(time.Hour),
		TotalAmount:   decimal.RequireFromString("13.50"),
		Status:        domain.OrderNew,
	})
	require.NoError(t, err)
	assert.Equal(t, orderID, id)
}

func TestClient_InsertOrderItems_ErrorIsStoreError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"23503","message":"insert or update on table \"order_items\" violates foreign key constraint"}`)
	})

	err := c.InsertOrderItems(context.Background(), orderID, []domain.OrderItem{{MenuItemID: menuA, Quantity: 1}})
	var se *domain.StoreError
	require.ErrorAs(t, err, &se)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "23503", apiErr.Code)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestClient_DeleteOrder_Idempotent(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq."+orderID, r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.DeleteOrder(context.Background(), orderID))
	require.NoError(t, c.DeleteOrder(context.Background(), orderID))
	assert.Equal(t, 2, calls)
}

func TestClient_FetchOrderWithItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, orderWithMenuSelect, r.URL.Query().Get("select"))
		if r.URL.Query().Get("id") != "eq."+orderID {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		_, _ = io.WriteString(w, `[{"id":"`+orderID+`","customer_name":"Jo","customer_email":null,
			"customer_phone":"+15551234567","pickup_time":"2026-10-17T13:00:00Z","notes":null,
			"total_amount":13.50,"status":"new","created_at":"2026-10-17T12:00:00Z",
			"order_items":[{"id":"i1","order_id":"`+orderID+`","menu_item_id":"`+menuA+`","quantity":2,"price":5.00,
			"notes":"extra basil","menu_item":{"name":"Margherita","price":5.00,"category":"pizza"}}]}]`)
	})

	o, err := c.FetchOrderWithItems(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderNew, o.Status)
	assert.Nil(t, o.CustomerEmail)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("13.5")))
	require.Len(t, o.Items, 1)
	require.NotNil(t, o.Items[0].Notes)
	assert.Equal(t, "extra basil", *o.Items[0].Notes)
	require.NotNil(t, o.Items[0].MenuItem)
	assert.Equal(t, "Margherita", o.Items[0].MenuItem.Name)

	_, err = c.FetchOrderWithItems(context.Background(), "0b9d1f2e-0000-4c3d-8e9f-abcdefabcdef")
	assert.True(t, domain.IsNotFound(err))
}

func TestClient_FetchOrderWithItems_MalformedID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"22P02","message":"invalid input syntax for type uuid: \"nope\""}`)
	})
	_, err := c.FetchOrderWithItems(context.Background(), "nope")
	assert.True(t, domain.IsNotFound(err))
}

func TestClient_ListOrders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "10", q.Get("offset"))
		assert.Equal(t, "eq.ready", q.Get("status"))
		w.Header().Set("Content-Range", "10-10/11")
		_, _ = io.WriteString(w, `[{"id":"`+orderID+`","status":"ready","total_amount":1,"order_items":[]}]`)
	})

	orders, total, err := c.ListOrders(context.Background(),
		domain.OrderFilter{Status: domain.OrderReady}, domain.Page{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderReady, orders[0].Status)
}

func TestClient_ListOrders_PastTheEnd(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "*/3")
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		_, _ = io.WriteString(w, `{"code":"PGRST103","message":"Requested range not satisfiable"}`)
	})

	orders, total, err := c.ListOrders(context.Background(), domain.OrderFilter{}, domain.Page{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NotNil(t, orders)
	assert.Equal(t, 3, total)
}

func TestClient_UpdateOrderStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "preparing", body["status"])
		if r.URL.Query().Get("id") != "eq."+orderID {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		_, _ = io.WriteString(w, `[{"id":"`+orderID+`","status":"preparing","total_amount":13.5}]`)
	})

	o, err := c.UpdateOrderStatus(context.Background(), orderID, domain.OrderPreparing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPreparing, o.Status)

	_, err = c.UpdateOrderStatus(context.Background(), "0b9d1f2e-0000-4c3d-8e9f-abcdefabcdef", domain.OrderPreparing)
	assert.True(t, domain.IsNotFound(err))
}

func TestClient_GetUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"invalid JWT"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"u1","email":"chef@example.com","user_metadata":{"role":"admin"}}`)
	})

	u, err := c.GetUser(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, &domain.User{ID: "u1", Email: "chef@example.com", Role: "admin",
		Metadata: map[string]any{"role": "admin"}}, u)

	_, err = c.GetUser(context.Background(), "bad")
	var ua domain.ErrUnauthorized
	assert.ErrorAs(t, err, &ua)
}

func TestParseContentRangeTotal(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0-49/123", 123, false},
		{"*/0", 0, false},
		{"0-9/*", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseContentRangeTotal(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestInFilter_Quotes(t *testing.T) {
	assert.Equal(t, `in.("a","b\"c")`, inFilter([]string{"a", `b"c`}))
}

func TestClient_CreateUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		assert.Equal(t, "service", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["email"] == "taken@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"code":422,"error_code":"email_exists","msg":"A user with this email address has already been registered"}`)
			return
		}
		assert.Equal(t, true, body["email_confirm"])
		assert.Equal(t, map[string]any{"first_name": "Ana", "last_name": "Lima", "role": "staff"}, body["user_metadata"])
		_, _ = io.WriteString(w, `{"id":"u-7","email":"ana@example.com","user_metadata":{"first_name":"Ana","last_name":"Lima","role":"staff"}}`)
	})

	u, err := c.CreateUser(context.Background(), domain.NewStaffUser{
		Email: "ana@example.com", Password: "secret1", FirstName: "Ana", LastName: "Lima", Role: "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-7", u.ID)
	assert.Equal(t, "staff", u.Role)
	assert.Equal(t, "Ana", u.Metadata["first_name"])

	_, err = c.CreateUser(context.Background(), domain.NewStaffUser{Email: "taken@example.com", Role: "staff"})
	var ve domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "already been registered")
}

func TestClient_CreateUser_NeedsServiceKey(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "anon", "")
	_, err := c.CreateUser(context.Background(), domain.NewStaffUser{Email: "a@example.com"})
	var unsupported domain.ErrUnsupported
	assert.ErrorAs(t, err, &unsupported)
}
