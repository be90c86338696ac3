package attendance

import (
	"sort"
	"time"

	"github.com/ankulpolara/face-attend/internal/database"
)

// DaySummary aggregates one employee's sessions on one civil day.
type DaySummary struct {
	EmployeeID   int64
	EmployeeName string
	Date         database.CivilDate
	Sessions     int
	Worked       time.Duration
	Open         bool
}

// Summarize groups attendance records by (employee, day) and totals the
// worked time of closed sessions. Days with a still-open session are flagged;
// the open session contributes no time. Results are ordered newest day first,
// then employee name.
func Summarize(records []database.AttendanceRecord) []DaySummary {
	type key struct {
		employeeID int64
		date       database.CivilDate
	}

	byDay := make(map[key]*DaySummary)
	for i := range records {
		r := &records[i]
		k := key{r.EmployeeID, r.Date}
		s, ok := byDay[k]
		if !ok {
			s = &DaySummary{
				EmployeeID:   r.EmployeeID,
				EmployeeName: r.EmployeeName,
				Date:         r.Date,
			}
			byDay[k] = s
		}
		s.Sessions++
		if r.Closed() {
			s.Worked += r.Duration()
		} else if r.Open() {
			s.Open = true
		}
	}

	out := make([]DaySummary, 0, len(byDay))
	for _, s := range byDay {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].EmployeeName < out[j].EmployeeName
	})
	return out
}
