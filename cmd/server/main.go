package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/gatherhq/gather/internal/config"
	"github.com/gatherhq/gather/internal/metadata"
	"github.com/gatherhq/gather/internal/server"
	"github.com/gatherhq/gather/internal/service"
	"github.com/gatherhq/gather/internal/storage/sqlite"
	"github.com/gatherhq/gather/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	srv := server.New(
		service.NewMembershipService(store),
		service.NewPresenceService(store),
		service.NewProposalService(store, metadata.NewHTTPFetcher()),
		service.NewAllocationService(store),
		service.NewExchangeService(store),
	)

	// h2c supports HTTP/2 clients without TLS; a fronting proxy
	// terminates TLS in deployment.
	handler := h2c.NewHandler(srv.Handler(), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
