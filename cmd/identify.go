package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ankulpolara/face-attend/internal/config"
	"github.com/ankulpolara/face-attend/internal/constants"
	"github.com/ankulpolara/face-attend/internal/database/postgres"
	"github.com/ankulpolara/face-attend/internal/embedding"
	"github.com/ankulpolara/face-attend/internal/recognizer"
)

var identifyCmd = &cobra.Command{
	Use:   "identify [image-file]",
	Short: "Identify the person in a face photo",
	Long: `Extracts the face embedding from the given image and resolves it against
the enrolled gallery, printing the match and its confidence.`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
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

	employees := postgres.NewEmployeeRepository(pool)
	enrolled, err := employees.ListEnrolled(ctx)
	if err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}

	gallery := make([]recognizer.Candidate, 0, len(enrolled))
	for i := range enrolled {
		e := &enrolled[i]
		gallery = append(gallery, recognizer.Candidate{
			EmployeeID: e.ID,
			Name:       e.Name,
			Embedding:  e.Embedding,
		})
	}

	resolution, err := recognizer.Resolve(descriptor, gallery, cfg.Attendance.Threshold)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	if !resolution.Matched {
		fmt.Printf("No match (%s)\n", resolution.Reason)
		return nil
	}

	fmt.Printf("Matched: %s (employee %d)\n", resolution.Name, resolution.EmployeeID)
	fmt.Printf("  Distance:   %.4f\n", resolution.Distance)
	fmt.Printf("  Confidence: %.4f\n", resolution.Confidence)
	return nil
}
