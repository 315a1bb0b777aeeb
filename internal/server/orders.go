package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-api/internal/domain"
)

type createOrderRequest struct {
	CustomerName  string             `json:"customer_name" binding:"required,min=2,max=100"`
	CustomerEmail string             `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone string             `json:"customer_phone" binding:"required,phone"`
	PickupTime    time.Time          `json:"pickup_time" binding:"required,notpast"`
	Notes         *string            `json:"notes"`
	Items         []orderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type orderItemRequest struct {
	MenuItemID string  `json:"menu_item_id" binding:"required,uuid"`
	Quantity   int     `json:"quantity" binding:"required,min=1"`
	Notes      *string `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,orderstatus"`
}

func (r createOrderRequest) toDomain() *domain.OrderRequest {
	out := &domain.OrderRequest{
		CustomerName:  strings.TrimSpace(r.CustomerName),
		CustomerPhone: strings.TrimSpace(r.CustomerPhone),
		PickupTime:    r.PickupTime,
		Notes:         emptyToNil(r.Notes),
		Items:         make([]domain.RequestedItem, 0, len(r.Items)),
	}
	if email := strings.TrimSpace(r.CustomerEmail); email != "" {
		out.CustomerEmail = &email
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, domain.RequestedItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Notes:      emptyToNil(it.Notes),
		})
	}
	return out
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, bindError(err))
		return
	}
	o, err := s.orders.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		s.abort(c, err)
		return
	}
	s.ok(c, http.StatusCreated, o)
}

func (s *Server) listOrders(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		s.abort(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		s.abort(c, err)
		return
	}
	f := domain.OrderFilter{Status: domain.OrderStatus(c.Query("status"))}
	orders, total, p, err := s.orders.List(c.Request.Context(), f, domain.Page{Page: page, Limit: limit})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       len(orders),
		"totalPages":  p.TotalPages(total),
		"currentPage": p.Page,
		"data":        orders,
	})
}

func (s *Server) getOrder(c *gin.Context) {
	o, err := s.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	s.ok(c, http.StatusOK, o)
}

func (s *Server) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, bindError(err))
		return
	}
	o, err := s.orders.UpdateStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		s.abort(c, err)
		return
	}
	s.ok(c, http.StatusOK, o)
}

func (s *Server) ordersByPhone(c *gin.Context) {
	orders, err := s.orders.ListByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "data": orders})
}

// queryInt reads an optional positive integer query parameter; absent means zero (the default applies).
func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domain.ValidationError{Field: key, Message: "must be a positive integer"}
	}
	return n, nil
}
