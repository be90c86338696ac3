package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ankulpolara/face-attend/internal/config"
	"github.com/ankulpolara/face-attend/internal/constants"
	"github.com/ankulpolara/face-attend/internal/database"
	"github.com/ankulpolara/face-attend/internal/database/postgres"
	"github.com/ankulpolara/face-attend/internal/embedding"
	"github.com/ankulpolara/face-attend/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the Face Attend API server.
The server exposes employee management, face identification and the
attendance ledger as a JSON API for kiosk clients.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// initGalleryIndex builds the in-memory index when the gallery is large
// enough to benefit. Small galleries resolve by full scan.
func initGalleryIndex(ctx context.Context, employees *postgres.EmployeeRepository) *database.GalleryIndex {
	enrolled, err := employees.ListEnrolled(ctx)
	if err != nil {
		fmt.Printf("Warning: failed to load gallery: %v\n", err)
		return nil
	}
	if len(enrolled) < constants.GalleryIndexMinSize {
		return nil
	}

	index := database.NewGalleryIndex()
	if err := index.Build(enrolled); err != nil {
		fmt.Printf("Warning: failed to build gallery index: %v\n", err)
		fmt.Printf("Identification will scan the full gallery (slower)\n")
		return nil
	}
	fmt.Printf("Gallery index built with %d enrolled employees\n", index.Len())
	return index
}

// initProvider connects to the embedding server. The server still works
// without it: descriptor-based requests are unaffected.
func initProvider(ctx context.Context, cfg *config.Config) embedding.Provider {
	provider := embedding.NewClient(&cfg.Embedding)
	if err := provider.Open(ctx); err != nil {
		fmt.Printf("Warning: embedding provider not reachable: %v\n", err)
		fmt.Printf("Image endpoints will reject uploads until it comes up\n")
	}
	return provider
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	employees := postgres.NewEmployeeRepository(pool)
	sessions := postgres.NewSessionRepository(pool)
	index := initGalleryIndex(ctx, employees)
	provider := initProvider(ctx, cfg)
	defer provider.Close()

	port, host := resolveServeHostPort(cmd)
	stores := web.Stores{
		Employees: employees,
		Sessions:  sessions,
		Index:     index,
	}
	server := web.NewServer(cfg, port, host, stores, provider)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attend API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
