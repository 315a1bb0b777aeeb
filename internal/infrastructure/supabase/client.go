package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-api/internal/domain"
)

const (
	orderSelect          = "*,order_items(*)"
	orderWithMenuSelect  = "*,order_items(*,menu_item:menu_items(name,price,category))"
	orderWithNamesSelect = "*,order_items(*,menu_item:menu_items(name))"
)

// Client talks to the hosted project: table access over its REST interface and token lookup over its
// auth endpoint. Each gateway method is exactly one HTTP round trip.
type Client struct {
	BaseURL    string
	AnonKey    string
	ServiceKey string
	HTTP       *http.Client
}

func NewClient(baseURL, anonKey, serviceKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AnonKey:    anonKey,
		ServiceKey: serviceKey,
		HTTP:       &http.Client{Timeout: 15 * time.Second},
	}
}

// APIError is the error body returned by the REST interface.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
	// the auth endpoints report errors as {"msg": ...} or {"error_description": ...}
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("supabase %d: %s", e.Status, msg)
}

type orderRow struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail *string         `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	PickupTime    time.Time       `json:"pickup_time"`
	Notes         *string         `json:"notes"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	OrderItems    []orderItemRow  `json:"order_items"`
}

type orderItemRow struct {
	ID         string          `json:"id,omitempty"`
	OrderID    string          `json:"order_id"`
	MenuItemID string          `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Notes      *string         `json:"notes"`
	MenuItem   *struct {
		Name     string           `json:"name"`
		Price    *decimal.Decimal `json:"price"`
		Category string           `json:"category"`
	} `json:"menu_item,omitempty"`
}

func (r orderRow) toDomain() domain.Order {
	o := domain.Order{
		ID:            r.ID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		PickupTime:    r.PickupTime,
		Notes:         r.Notes,
		TotalAmount:   r.TotalAmount,
		Status:        domain.OrderStatus(r.Status),
		CreatedAt:     r.CreatedAt,
	}
	if r.OrderItems != nil {
		o.Items = make([]domain.OrderItem, 0, len(r.OrderItems))
	}
	for _, it := range r.OrderItems {
		item := domain.OrderItem{
			ID:         it.ID,
			OrderID:    it.OrderID,
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Notes:      it.Notes,
		}
		if it.MenuItem != nil {
			item.MenuItem = &domain.MenuItemRef{Name: it.MenuItem.Name, Price: it.MenuItem.Price, Category: it.MenuItem.Category}
		}
		o.Items = append(o.Items, item)
	}
	return o
}

func (c *Client) FetchMenuItemsByIDs(ctx context.Context, ids []string) ([]domain.MenuItem, error) {
	// a malformed id cannot match any row and would fail the whole filter
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("select", "id,name,price,category,available")
	q.Set("id", inFilter(valid))
	var out []domain.MenuItem
	if _, err := c.rest(ctx, http.MethodGet, "menu_items", q, nil, "", &out); err != nil {
		return nil, domain.NewStoreError("fetch menu items", err)
	}
	return out, nil
}

func (c *Client) InsertOrder(ctx context.Context, o *domain.Order) (string, error) {
	body := []map[string]any{{
		"customer_name":  o.CustomerName,
		"customer_email": o.CustomerEmail,
		"customer_phone": o.CustomerPhone,
		"pickup_time":    o.PickupTime,
		"notes":          o.Notes,
		"total_amount":   o.TotalAmount,
		"status":         string(o.Status),
	}}
	q := url.Values{}
	q.Set("select", "id")
	var out []struct {
		ID string `json:"id"`
	}
	if _, err := c.rest(ctx, http.MethodPost, "orders", q, body, "return=representation", &out); err != nil {
		return "", domain.NewStoreError("insert order", err)
	}
	if len(out) == 0 || out[0].ID == "" {
		return "", domain.NewStoreError("insert order", errors.New("no id returned"))
	}
	return out[0].ID, nil
}

func (c *Client) InsertOrderItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	rows := make([]orderItemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, orderItemRow{
			OrderID:    orderID,
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Notes:      it.Notes,
		})
	}
	if _, err := c.rest(ctx, http.MethodPost, "order_items", nil, rows, "return=minimal", nil); err != nil {
		return domain.NewStoreError("insert order items", err)
	}
	return nil
}

// DeleteOrder succeeds when no row matches; child items go with the parent through the foreign key.
func (c *Client) DeleteOrder(ctx context.Context, orderID string) error {
	q := url.Values{}
	q.Set("id", "eq."+orderID)
	if _, err := c.rest(ctx, http.MethodDelete, "orders", q, nil, "return=minimal", nil); err != nil {
		if isInvalidText(err) {
			return nil
		}
		return domain.NewStoreError("delete order", err)
	}
	return nil
}

func (c *Client) FetchOrderWithItems(ctx context.Context, orderID string) (*domain.Order, error) {
	q := url.Values{}
	q.Set("select", orderWithMenuSelect)
	q.Set("id", "eq."+orderID)
	var out []orderRow
	if _, err := c.rest(ctx, http.MethodGet, "orders", q, nil, "", &out); err != nil {
		if isInvalidText(err) {
			return nil, domain.ErrNotFound("order")
		}
		return nil, domain.NewStoreError("fetch order", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound("order")
	}
	o := out[0].toDomain()
	return &o, nil
}

func (c *Client) ListOrders(ctx context.Context, f domain.OrderFilter, p domain.Page) ([]domain.Order, int, error) {
	q := url.Values{}
	q.Set("select", orderSelect)
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("offset", strconv.Itoa(p.Offset()))
	if f.Status != "" {
		q.Set("status", "eq."+string(f.Status))
	}
	var out []orderRow
	hdr, err := c.rest(ctx, http.MethodGet, "orders", q, nil, "count=exact", &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusRequestedRangeNotSatisfiable {
		// offset past the last row: an empty page, the header still carries "*/total"
		total, _ := parseContentRangeTotal(hdr.Get("Content-Range"))
		return []domain.Order{}, total, nil
	}
	if err != nil {
		return nil, 0, domain.NewStoreError("list orders", err)
	}
	total, err := parseContentRangeTotal(hdr.Get("Content-Range"))
	if err != nil {
		return nil, 0, domain.NewStoreError("list orders", err)
	}
	return toOrders(out), total, nil
}

func (c *Client) ListOrdersByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	q := url.Values{}
	q.Set("select", orderWithNamesSelect)
	q.Set("customer_phone", "eq."+phone)
	q.Set("order", "created_at.desc")
	var out []orderRow
	if _, err := c.rest(ctx, http.MethodGet, "orders", q, nil, "", &out); err != nil {
		return nil, domain.NewStoreError("list orders by phone", err)
	}
	return toOrders(out), nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	q := url.Values{}
	q.Set("id", "eq."+orderID)
	var out []orderRow
	body := map[string]string{"status": string(status)}
	if _, err := c.rest(ctx, http.MethodPatch, "orders", q, body, "return=representation", &out); err != nil {
		if isInvalidText(err) {
			return nil, domain.ErrNotFound("order")
		}
		return nil, domain.NewStoreError("update order status", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound("order")
	}
	o := out[0].toDomain()
	return &o, nil
}

type authUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

// GetUser resolves an access token through the auth endpoint.
func (c *Client) GetUser(ctx context.Context, token string) (*domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.AnonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	var u authUser
	if _, err := c.do(req, &u); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return nil, domain.ErrUnauthorized("Invalid or expired token")
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}
	return u.toDomain(), nil
}

func (u authUser) toDomain() *domain.User {
	role, _ := u.UserMetadata["role"].(string)
	if role == "" {
		role, _ = u.AppMetadata["role"].(string)
	}
	return &domain.User{ID: u.ID, Email: u.Email, Role: role, Metadata: u.UserMetadata}
}

// CreateUser registers a confirmed account through the admin endpoint. It needs the service role key.
func (c *Client) CreateUser(ctx context.Context, nu domain.NewStaffUser) (*domain.User, error) {
	if c.ServiceKey == "" {
		return nil, domain.ErrUnsupported("creating users requires the service role key")
	}
	b, err := json.Marshal(map[string]any{
		"email":         nu.Email,
		"password":      nu.Password,
		"email_confirm": true,
		"user_metadata": map[string]any{
			"first_name": nu.FirstName,
			"last_name":  nu.LastName,
			"role":       nu.Role,
		},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/auth/v1/admin/users", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	req.Header.Set("Content-Type", "application/json")
	var u authUser
	if _, err := c.do(req, &u); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 &&
			apiErr.Status != http.StatusUnauthorized && apiErr.Status != http.StatusForbidden {
			return nil, domain.ValidationError{Field: "email", Message: apiErr.Message}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u.toDomain(), nil
}

func (c *Client) rest(ctx context.Context, method, table string, q url.Values, body any, prefer string, out any) (http.Header, error) {
	u := c.BaseURL + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	key := c.ServiceKey
	if key == "" {
		key = c.AnonKey
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) (http.Header, error) {
	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		// auth errors carry a numeric code; decode what fits and fall back to the raw body
		_ = json.Unmarshal(body, apiErr)
		if apiErr.Message == "" {
			apiErr.Message = apiErr.Msg
		}
		if apiErr.Message == "" {
			apiErr.Message = apiErr.ErrorDescription
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return resp.Header, apiErr
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return resp.Header, nil
	}
	return resp.Header, json.Unmarshal(body, out)
}

func toOrders(rows []orderRow) []domain.Order {
	out := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

// inFilter renders an "in" filter. Values are double quoted so commas and parentheses stay literal.
func inFilter(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		quoted = append(quoted, `"`+v+`"`)
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// parseContentRangeTotal reads the total from "0-49/123" or "*/0".
func parseContentRangeTotal(h string) (int, error) {
	i := strings.LastIndexByte(h, '/')
	if i < 0 {
		return 0, fmt.Errorf("content-range %q has no total", h)
	}
	total := h[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("content-range %q has unknown total", h)
	}
	return strconv.Atoi(total)
}

// isInvalidText reports a Postgres invalid_text_representation, which the REST layer returns when an id
// is not a valid uuid.
func isInvalidText(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "22P02"
}
