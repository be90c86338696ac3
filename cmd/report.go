package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ankulpolara/face-attend/internal/attendance"
	"github.com/ankulpolara/face-attend/internal/config"
	"github.com/ankulpolara/face-attend/internal/constants"
	"github.com/ankulpolara/face-attend/internal/database"
	"github.com/ankulpolara/face-attend/internal/database/postgres"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a worked-hours report",
	Long: `Summarizes attendance sessions per employee and day over a date range:
total worked time of closed sessions, session count, whether a session is
still open, and policy holidays.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("from", "", "Start date (YYYY-MM-DD), default 30 days ago")
	reportCmd.Flags().String("to", "", "End date (YYYY-MM-DD), default today")
	reportCmd.Flags().Int("employee", 0, "Restrict to one employee id")
}

func reportRange(cmd *cobra.Command, loc *time.Location) (database.CivilDate, database.CivilDate, error) {
	now := time.Now()
	from := database.CivilDateOf(now.AddDate(0, 0, -30), loc)
	to := database.CivilDateOf(now, loc)

	if v := mustGetString(cmd, "from"); v != "" {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return "", "", fmt.Errorf("invalid --from date %q, use YYYY-MM-DD", v)
		}
		from = database.CivilDate(v)
	}
	if v := mustGetString(cmd, "to"); v != "" {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return "", "", fmt.Errorf("invalid --to date %q, use YYYY-MM-DD", v)
		}
		to = database.CivilDate(v)
	}
	return from, to, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	from, to, err := reportRange(cmd, cfg.Location())
	if err != nil {
		return err
	}

	preds := []database.AttendancePredicate{
		database.FromDate(from),
		database.UntilDate(to),
	}
	if id := mustGetInt(cmd, "employee"); id > 0 {
		preds = append(preds, database.ForEmployee(int64(id)))
	}

	sessions := postgres.NewSessionRepository(pool)
	records, err := sessions.List(context.Background(), database.NewAttendanceFilter(preds...), constants.DefaultListLimit)
	if err != nil {
		return fmt.Errorf("failed to load attendance: %w", err)
	}

	summaries := attendance.Summarize(records)
	if len(summaries) == 0 {
		fmt.Printf("No attendance between %s and %s\n", from, to)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tEMPLOYEE\tSESSIONS\tWORKED\tNOTE")
	for _, s := range summaries {
		note := ""
		if holiday := cfg.Policy.HolidayName(string(s.Date)); holiday != "" {
			note = holiday
		}
		if s.Open {
			if note != "" {
				note += ", "
			}
			note += "session open"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.Date, s.EmployeeName, s.Sessions, formatWorked(s.Worked), note)
	}
	return w.Flush()
}

func formatWorked(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
