// PhiGate — single-hop dispatch gateway for dual Phi-4 inference backends.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/taavik/phigate/internal/config"
	"github.com/taavik/phigate/internal/routing"
	"github.com/taavik/phigate/internal/server"
	"github.com/taavik/phigate/internal/telemetry"
	"go.uber.org/zap"
)

const asciiLogo = `
 ██████╗ ██╗  ██╗██╗ ██████╗  █████╗ ████████╗███████╗
 ██╔══██╗██║  ██║██║██╔════╝ ██╔══██╗╚══██╔══╝██╔════╝
 ██████╔╝███████║██║██║  ███╗███████║   ██║   █████╗
 ██╔═══╝ ██╔══██║██║██║   ██║██╔══██║   ██║   ██╔══╝
 ██║     ██║  ██║██║╚██████╔╝██║  ██║   ██║   ███████╗
 ╚═╝     ╚═╝  ╚═╝╚═╝ ╚═════╝ ╚═╝  ╚═╝   ╚═╝   ╚══════╝
`

const version = "v0.1.0"

func printBanner() {
	fmt.Printf("%s\n", asciiLogo)
	fmt.Printf("  ► PhiGate %s  |  reasoning + multimodal dispatch gateway\n\n", version)
}

func main() {
	root := &cobra.Command{
		Use:          "phigate",
		Short:        "PhiGate — API gateway for dual specialized inference backends",
		SilenceUsage: true,
	}

	// ── serve subcommand ──────────────────────────────────────────────────────
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer logger.Sync()

			if err := server.InitDB(cfg); err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}

			// Inject security settings into server package globals.
			server.SetJWTSecret(cfg.JWTSecret)
			if err := server.SetAdminCredentials(cfg.AdminUser, cfg.AdminPass); err != nil {
				return fmt.Errorf("hashing admin password: %w", err)
			}

			server.SetLogger(logger)
			server.SetRegistry(routing.NewRegistry(cfg))
			server.SetCollector(telemetry.NewCollector(telemetry.NewNvidiaSMI()))

			gin.SetMode(gin.ReleaseMode)
			engine := gin.New()
			engine.Use(gin.Recovery())
			server.RegisterRoutes(engine)

			addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.PublicPort)

			fmt.Printf("  ✓ Gateway surface → http://%s\n", addr)
			fmt.Printf("  ✓ Reasoning backend  → %s (%s)\n", cfg.ReasoningURL, cfg.ModelReasoningAlias)
			fmt.Printf("  ✓ Multimodal backend → %s (%s)\n\n", cfg.MultimodalURL, cfg.ModelMultimodalAlias)

			srv := &http.Server{Addr: addr, Handler: engine}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt) // os.Interrupt = SIGINT; works on all platforms

			select {
			case err := <-errCh:
				return err
			case <-quit:
				fmt.Println("\n  → Shutting down gracefully…")
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	// ── version subcommand ────────────────────────────────────────────────────
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print PhiGate version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PhiGate %s\n", version)
		},
	}

	root.AddCommand(serveCmd, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
