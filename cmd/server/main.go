package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/handler"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/storage/sqlite"
	"github.com/tallyhq/tally/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Log.Level)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.Database.Path)

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.TokenDuration())
	authenticator := auth.NewPasswordAuthenticator(store)

	locks := service.NewLockSet()
	ledger := service.NewLedgerService(store, locks)
	groups := service.NewGroupService(store, locks)
	settlements := service.NewSettlementService(store, ledger, locks)

	h := handler.New(authenticator, jwtManager, groups, ledger, settlements, store)

	// Wrap with h2c so HTTP/2 works without TLS behind a terminating proxy.
	srv := h2c.NewHandler(h.Router(), &http2.Server{})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
