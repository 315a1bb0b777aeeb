package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-api/internal/config"
	"restaurant-api/internal/domain"
	"restaurant-api/internal/logger"
	"restaurant-api/internal/usecase"
)

type Deps struct {
	Orders *usecase.OrderService
	Auth   *usecase.AuthService
	Log    *slog.Logger
}

type Server struct {
	cfg    config.Config
	orders *usecase.OrderService
	auth   *usecase.AuthService
	log    *slog.Logger
	engine *gin.Engine
}

func New(cfg config.Config, d Deps) *Server {
	if !cfg.IsDevelopment() && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	registerValidators()
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	s := &Server{
		cfg:    cfg,
		orders: d.Orders,
		auth:   d.Auth,
		log:    d.Log,
		engine: gin.New(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.Use(s.recovery(), s.requestLogger(), securityHeaders(), cors(s.cfg.CORSOrigins), timeout(s.cfg.RequestTimeout))
	r.NoRoute(func(c *gin.Context) {
		s.fail(c, http.StatusNotFound, "Route not found", nil)
	})

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.GET("/auth/me", s.authenticate(), s.me)
	api.POST("/auth/staff", s.authenticate(), s.requireRole("Admin access required", domain.RoleAdmin), s.createStaff)

	orders := api.Group("/orders")
	orders.POST("", s.createOrder)
	orders.GET("/customer/:phone", s.ordersByPhone)

	staff := orders.Group("", s.authenticate(), s.requireRole("Staff access required", domain.RoleAdmin, domain.RoleStaff))
	staff.GET("", s.listOrders)
	staff.GET("/:id", s.getOrder)
	staff.PATCH("/:id/status", s.updateStatus)
}

// Run serves until ctx is cancelled, then drains in-flight requests for up to five seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("http server listening", "action", "server_started", "port", s.cfg.Port, "env", s.cfg.Env)

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(sctx)
		s.log.Info("http server stopped", "action", "server_stopped")
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "API is running"})
}

func (s *Server) me(c *gin.Context) {
	s.ok(c, http.StatusOK, currentUser(c).Profile())
}
