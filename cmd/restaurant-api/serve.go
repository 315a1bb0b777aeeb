package main

import (
	"context"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"restaurant-api/internal/config"
	"restaurant-api/internal/infrastructure/events"
	"restaurant-api/internal/infrastructure/repo"
	"restaurant-api/internal/infrastructure/supabase"
	"restaurant-api/internal/logger"
	"restaurant-api/internal/server"
	"restaurant-api/internal/usecase"
)

type loader func() (config.Config, error)

// serveFlags are applied over the loaded config only when set on the command line.
type serveFlags struct {
	env      string
	port     int
	store    string
	logJSON  bool
	logLevel string
	seed     string
}

func newServeCmd(load loader) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("env") {
				cfg.Env = f.env
			}
			if flags.Changed("port") {
				cfg.Port = f.port
			}
			if flags.Changed("store") {
				cfg.Store = f.store
			}
			if flags.Changed("log-json") {
				cfg.LogJSON = f.logJSON
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = f.logLevel
			}
			if flags.Changed("menu-seed") {
				cfg.MenuSeed = f.seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.env, "env", "", "environment name (development enables error detail)")
	fl.IntVar(&f.port, "port", 0, "listen port")
	fl.StringVar(&f.store, "store", "", "order store: memory, postgres or supabase")
	fl.BoolVar(&f.logJSON, "log-json", true, "log as JSON")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fl.StringVar(&f.seed, "menu-seed", "", "YAML menu for the memory store")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.New(serviceName, cfg.LogJSON, cfg.LogLevel)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	var publisher usecase.EventPublisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
		log.Info("order events enabled", "action", "events_enabled", "exchange", cfg.AMQPExchange)
	}

	srv := server.New(cfg, server.Deps{
		Orders: &usecase.OrderService{
			Store:               st.orders,
			Menu:                st.menu,
			Events:              publisher,
			Log:                 log,
			CompensationTimeout: cfg.CompensationTimeout,
		},
		Auth: &usecase.AuthService{JWTSecret: cfg.JWTSecret, Provider: st.identity, Admin: st.admin},
		Log:  log,
	})
	return srv.Run(ctx)
}

type stores struct {
	orders   usecase.OrderStore
	menu     usecase.MenuStore
	identity usecase.IdentityProvider
	admin    usecase.UserAdmin
	closers  []io.Closer
}

func (s *stores) close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{}
	// The hosted auth endpoint verifies tokens for every store when it is configured.
	if cfg.SupabaseURL != "" && cfg.SupabaseAnonKey != "" {
		st.identity = supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseServiceKey)
	}
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		st.admin = supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseServiceKey)
	}

	switch cfg.Store {
	case config.StoreSupabase:
		c := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseServiceKey)
		st.orders, st.menu = c, c
		if st.identity == nil {
			st.identity = c
		}
	case config.StorePostgres:
		pg, err := repo.OpenPostgres(ctx, cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pg)
		if cfg.AutoMigrate {
			applied, err := pg.Migrate(ctx)
			if err != nil {
				st.close()
				return nil, err
			}
			log.Info("migrations applied", "action", "migrations_applied", "count", len(applied))
		}
		st.orders, st.menu = pg, pg
	default:
		mem := repo.NewMemoryStore()
		if cfg.MenuSeed != "" {
			items, err := config.LoadMenuSeed(cfg.MenuSeed)
			if err != nil {
				return nil, err
			}
			mem.PutMenuItems(items...)
			log.Info("menu seeded", "action", "menu_seeded", "items", len(items))
		}
		st.orders, st.menu = mem, mem
	}
	log.Info("order store ready", "action", "store_ready", "store", cfg.Store)
	if st.identity == nil && cfg.JWTSecret == "" {
		log.Warn("no JWT secret or auth provider configured; staff routes will reject every token",
			"action", "auth_unconfigured")
	}
	return st, nil
}
