package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-api/internal/domain"
)

type createStaffRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Role      string `json:"role" binding:"omitempty,oneof=admin staff"`
}

func (s *Server) createStaff(c *gin.Context) {
	var req createStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, bindError(err))
		return
	}
	u, err := s.auth.CreateStaff(c.Request.Context(), domain.NewStaffUser{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Staff user created successfully",
		"data":    gin.H{"id": u.ID, "email": u.Email, "role": u.Role},
	})
}
