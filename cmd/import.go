package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ankulpolara/face-attend/internal/config"
	"github.com/ankulpolara/face-attend/internal/database"
	"github.com/ankulpolara/face-attend/internal/database/legacy"
	"github.com/ankulpolara/face-attend/internal/database/postgres"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the legacy MySQL attendance database",
	Long: `One-shot copy of the historical attendance system (MySQL) into the
current store. Employees come first, then their attendance rows are
replayed through the ledger store. Set LEGACY_DATABASE_DSN to point at
the old database.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("dry-run", false, "Read and validate without writing")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Legacy.DSN == "" {
		return errors.New("LEGACY_DATABASE_DSN environment variable is required")
	}

	source, err := legacy.Open(cfg.Legacy.DSN)
	if err != nil {
		return fmt.Errorf("failed to open legacy database: %w", err)
	}
	defer source.Close()

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	dryRun := mustGetBool(cmd, "dry-run")

	employeeCount, sessionCount, err := source.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count legacy rows: %w", err)
	}
	fmt.Printf("Importing %d employees and %d attendance rows\n", employeeCount, sessionCount)

	idMap, unenrolled, err := importEmployees(ctx, source, postgres.NewEmployeeRepository(pool), dryRun)
	if err != nil {
		return err
	}

	imported, skipped, err := importSessions(ctx, source, postgres.NewSessionRepository(pool), idMap, dryRun)
	if err != nil {
		return err
	}

	fmt.Printf("Done: %d employees (%d without a usable descriptor), %d sessions imported, %d skipped\n",
		len(idMap), unenrolled, imported, skipped)
	if dryRun {
		fmt.Println("Dry run, nothing was written")
	}
	return nil
}

// importEmployees copies legacy employees and returns the old-id to new-id
// mapping. Employees whose descriptor fails to parse are created unenrolled.
func importEmployees(ctx context.Context, source *legacy.Source, repo *postgres.EmployeeRepository, dryRun bool) (map[int64]int64, int, error) {
	employees, err := source.Employees(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read legacy employees: %w", err)
	}

	bar := progressbar.Default(int64(len(employees)), "employees")
	idMap := make(map[int64]int64, len(employees))
	unenrolled := 0
	for i := range employees {
		e := &employees[i]
		if !e.Enrolled() {
			unenrolled++
		}

		legacyID := e.ID
		newID := legacyID
		if !dryRun {
			newID, err = repo.Create(ctx, &database.Employee{
				Name:       e.Name,
				Email:      e.Email,
				Department: e.Department,
				Embedding:  e.Embedding,
			})
			if err != nil {
				return nil, 0, fmt.Errorf("failed to import employee %d (%s): %w", legacyID, e.Email, err)
			}
		}
		idMap[legacyID] = newID
		bar.Add(1)
	}
	return idMap, unenrolled, nil
}

// importSessions replays legacy attendance rows through the ledger store so
// the imported data obeys the same invariants as live writes. Rows without a
// check-in (never repaired in the old system) are skipped.
func importSessions(ctx context.Context, source *legacy.Source, repo *postgres.SessionRepository, idMap map[int64]int64, dryRun bool) (imported, skipped int, err error) {
	sessions, err := source.Sessions(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read legacy attendance: %w", err)
	}

	bar := progressbar.Default(int64(len(sessions)), "sessions")
	for i := range sessions {
		s := &sessions[i]
		bar.Add(1)

		newID, ok := idMap[s.EmployeeID]
		if !ok || s.CheckIn == nil {
			skipped++
			continue
		}
		if dryRun {
			imported++
			continue
		}

		err := repo.Transact(ctx, newID, s.Date, func(tx database.LedgerTx) error {
			created, err := tx.Create(ctx, newID, s.Date, *s.CheckIn)
			if err != nil {
				return err
			}
			if s.CheckOut != nil {
				_, err = tx.Close(ctx, created.ID, *s.CheckOut)
			}
			return err
		})
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to import session for employee %d on %s: %w", s.EmployeeID, s.Date, err)
		}
		imported++
	}
	return imported, skipped, nil
}
