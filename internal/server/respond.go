package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-api/internal/domain"
	"restaurant-api/internal/logger"
)

type errorBody struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// statusOf maps a service error to its HTTP status and client message. Store failures never leak their text.
func statusOf(err error) (int, string) {
	var (
		orphan  *domain.OrphanedOrderError
		valid   domain.ValidationError
		unknown domain.ErrUnknownMenuItem
		unauth  domain.ErrUnauthorized
		forbid  domain.ErrForbidden
		store   *domain.StoreError
		missing domain.ErrNotFound
		unsup   domain.ErrUnsupported
	)
	switch {
	case errors.As(err, &orphan):
		return http.StatusInternalServerError, "Order could not be completed"
	case errors.As(err, &valid):
		return http.StatusBadRequest, valid.Error()
	case errors.As(err, &unknown):
		return http.StatusBadRequest, unknown.Error()
	case errors.As(err, &unauth):
		return http.StatusUnauthorized, unauth.Error()
	case errors.As(err, &forbid):
		return http.StatusForbidden, forbid.Error()
	case errors.As(err, &store):
		return http.StatusInternalServerError, "Something went wrong"
	case errors.As(err, &missing):
		return http.StatusNotFound, capitalize(missing.Error())
	case errors.As(err, &unsup):
		return http.StatusNotImplemented, unsup.Error()
	default:
		return http.StatusInternalServerError, "Something went wrong"
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func (s *Server) ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// abort renders err and stops the handler chain.
func (s *Server) abort(c *gin.Context, err error) {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), s.log).Error("request error",
			"action", "request_error", "path", c.FullPath(), "error", err.Error())
	}
	s.fail(c, status, msg, err)
}

func (s *Server) fail(c *gin.Context, status int, msg string, err error) {
	body := errorBody{Success: false, Status: status, Message: msg}
	if err != nil && s.cfg.IsDevelopment() {
		body.Detail = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
