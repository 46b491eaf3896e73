package tpimport

import (
	"strings"
	"time"
)

// keySep cannot appear in CSV text fields that survive trimming.
const keySep = "\x1f"

// Key identifies "the same" workout across imports: day, title and type.
type Key string

// MakeKey builds the composite key from its three parts.
func MakeKey(day time.Time, title, workoutType string) Key {
	return Key(day.Format(time.DateOnly) + keySep + strings.TrimSpace(title) + keySep + strings.TrimSpace(workoutType))
}

// Key returns the row's composite key.
func (r Row) Key() Key {
	return MakeKey(r.WorkoutDay, r.Title, r.WorkoutType)
}

// Action is what an upsert will do with a row.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// RowPreview is the per-line outcome shown before an import is committed.
// DuplicateOf is the line of the first row sharing the key.
type RowPreview struct {
	Line        int    `json:"line"`
	WorkoutDay  string `json:"workout_day"`
	Title       string `json:"title"`
	WorkoutType string `json:"workout_type"`
	Action      Action `json:"action"`
	Duplicate   bool   `json:"duplicate"`
	DuplicateOf int    `json:"duplicate_of,omitempty"`
}

// Summary is the outcome of classifying an import batch.
type Summary struct {
	Created    int          `json:"created"`
	Updated    int          `json:"updated"`
	Skipped    int          `json:"skipped"`
	Duplicates int          `json:"duplicates"`
	Preview    []RowPreview `json:"preview"`
	Errors     []RowError   `json:"errors"`

	// Rows is the batch to persist: one row per key, in first-seen order,
	// holding the values of the key's last occurrence.
	Rows []Row `json:"-"`
}

// Classify decides create or update for every parsed row against the keys
// already stored. Rows repeating a key within the batch are flagged as
// duplicates and counted once, since the upsert collapses them into one
// stored row.
func Classify(parsed ParseResult, existing map[Key]bool) Summary {
	s := Summary{
		Skipped: len(parsed.Errors),
		Preview: make([]RowPreview, 0, len(parsed.Rows)),
		Errors:  parsed.Errors,
		Rows:    make([]Row, 0, len(parsed.Rows)),
	}
	if s.Errors == nil {
		s.Errors = []RowError{}
	}

	firstIdx := make(map[Key]int, len(parsed.Rows))
	for _, row := range parsed.Rows {
		k := row.Key()
		action := ActionCreate
		if existing[k] {
			action = ActionUpdate
		}
		p := RowPreview{
			Line:        row.Line,
			WorkoutDay:  row.WorkoutDay.Format(time.DateOnly),
			Title:       row.Title,
			WorkoutType: row.WorkoutType,
			Action:      action,
		}

		if i, seen := firstIdx[k]; seen {
			p.Duplicate = true
			p.DuplicateOf = s.Rows[i].Line
			s.Duplicates++
			s.Preview = append(s.Preview, p)
			line := s.Rows[i].Line
			s.Rows[i] = row
			s.Rows[i].Line = line
			continue
		}

		firstIdx[k] = len(s.Rows)
		s.Rows = append(s.Rows, row)
		s.Preview = append(s.Preview, p)
		if action == ActionUpdate {
			s.Updated++
		} else {
			s.Created++
		}
	}
	return s
}

// DateRange returns the earliest and latest workout day in rows; ok is false
// for an empty slice.
func DateRange(rows []Row) (start, end time.Time, ok bool) {
	for i, r := range rows {
		if i == 0 || r.WorkoutDay.Before(start) {
			start = r.WorkoutDay
		}
		if i == 0 || r.WorkoutDay.After(end) {
			end = r.WorkoutDay
		}
	}
	return start, end, len(rows) > 0
}
