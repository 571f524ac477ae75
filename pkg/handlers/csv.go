package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
)

// accepted timestamp layouts, most specific first
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

func parseOptionalTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// csvTable reads a header row and gives access to columns by name
type csvTable struct {
	r    *csv.Reader
	cols map[string]int
	row  []string
	line int
}

func newCSVTable(r io.Reader, required ...string) (*csvTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	cr.FieldsPerRecord = len(header)
	return &csvTable{r: cr, cols: cols, line: 1}, nil
}

func (t *csvTable) next() (bool, error) {
	row, err := t.r.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	t.row = row
	t.line++
	return true, nil
}

func (t *csvTable) get(name string) string {
	if i, ok := t.cols[name]; ok {
		return strings.TrimSpace(t.row[i])
	}
	return ""
}

func (t *csvTable) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", t.line, fmt.Sprintf(format, args...))
}

// parseItemsCSV reads work items. Required columns: id, priority,
// estimated_hours. kind defaults to delegable.
func parseItemsCSV(r io.Reader) ([]models.WorkItem, error) {
	t, err := newCSVTable(r, "id", "priority", "estimated_hours")
	if err != nil {
		return nil, err
	}

	var items []models.WorkItem
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		it := models.WorkItem{
			ID:       t.get("id"),
			Title:    t.get("title"),
			Kind:     models.Kind(strings.ToLower(t.get("kind"))),
			Priority: models.Priority(strings.ToLower(t.get("priority"))),
			Assignee: t.get("assignee"),
		}
		if it.Kind == "" {
			it.Kind = models.KindDelegable
		}
		if v := t.get("completed"); v != "" {
			if it.Completed, err = strconv.ParseBool(v); err != nil {
				return nil, t.errorf("completed: %v", err)
			}
		}
		if v := t.get("estimated_hours"); v != "" {
			h, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, t.errorf("estimated_hours: %v", err)
			}
			it.EstimatedHours = &h
		}
		if it.DueDate, err = parseOptionalTime(t.get("due_date")); err != nil {
			return nil, t.errorf("due_date: %v", err)
		}
		if it.StartDate, err = parseOptionalTime(t.get("start_date")); err != nil {
			return nil, t.errorf("start_date: %v", err)
		}
		items = append(items, it)
	}
	return items, nil
}

// parsePeopleCSV reads the roster in file order. Required column: id.
func parsePeopleCSV(r io.Reader) ([]models.Person, error) {
	t, err := newCSVTable(r, "id")
	if err != nil {
		return nil, err
	}

	var people []models.Person
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		people = append(people, models.Person{ID: t.get("id"), Name: t.get("name"), Email: t.get("email")})
	}
	return people, nil
}

func writeScheduleCSV(scheduled []models.ScheduledItem) (string, error) {
	var out strings.Builder
	w := csv.NewWriter(&out)
	_ = w.Write([]string{"item_id", "assigned_to", "suggested_start", "suggested_due", "reason"})
	for _, s := range scheduled {
		_ = w.Write([]string{
			s.ItemID,
			s.AssignedTo,
			s.SuggestedStart.Format(time.RFC3339),
			s.SuggestedDue.Format(time.RFC3339),
			s.Reason,
		})
	}
	w.Flush()
	return out.String(), w.Error()
}
