package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"os"

	"github.com/spf13/cobra"

	"github.com/ankulpolara/face-attend/internal/config"
	"github.com/ankulpolara/face-attend/internal/database"
	"github.com/ankulpolara/face-attend/internal/database/postgres"
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "List registered employees",
	RunE:  runEmployees,
}

func init() {
	rootCmd.AddCommand(employeesCmd)

	employeesCmd.Flags().String("search", "", "Filter by name (diacritics-insensitive)")
}

func runEmployees(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	repo := postgres.NewEmployeeRepository(pool)

	var employees []database.Employee
	if search := mustGetString(cmd, "search"); search != "" {
		employees, err = repo.SearchByName(ctx, search)
	} else {
		employees, err = repo.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list employees: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tDEPARTMENT\tENROLLED")
	for i := range employees {
		e := &employees[i]
		enrolled := "no"
		if e.Enrolled() {
			enrolled = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Email, e.Department, enrolled)
	}
	return w.Flush()
}
