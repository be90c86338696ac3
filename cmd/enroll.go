package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ankulpolara/face-attend/internal/config"
	"github.com/ankulpolara/face-attend/internal/constants"
	"github.com/ankulpolara/face-attend/internal/database/postgres"
	"github.com/ankulpolara/face-attend/internal/embedding"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [employee-id] [image-file]",
	Short: "Enroll an employee from a face photo",
	Long: `Extracts the face embedding from the given image and stores it as the
employee's enrollment. Re-running replaces the previous enrollment.`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid employee id %q", args[0])
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	cfg := config.Load()
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	employees := postgres.NewEmployeeRepository(pool)

	e, err := employees.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get employee: %w", err)
	}
	if e == nil {
		return fmt.Errorf("employee %d not found", id)
	}

	provider := embedding.NewClient(&cfg.Embedding)
	if err := provider.Open(ctx); err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}
	defer provider.Close()

	resized, err := embedding.ResizeImage(data, constants.MaxImageSize)
	if err != nil {
		return fmt.Errorf("failed to process image: %w", err)
	}

	descriptor, err := provider.ExtractFace(ctx, resized)
	if err != nil {
		return fmt.Errorf("failed to extract face: %w", err)
	}

	if err := employees.SetEmbedding(ctx, id, descriptor); err != nil {
		return fmt.Errorf("failed to store enrollment: %w", err)
	}

	fmt.Printf("Enrolled %s (employee %d) with a %d-dimensional embedding\n", e.Name, id, len(descriptor))
	return nil
}
