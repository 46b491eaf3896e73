// Package tpimport parses TrainingPeaks workout exports and works out how an
// import batch maps onto already-stored workouts.
package tpimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultSource tags rows whose file has no source column.
const DefaultSource = "trainingpeaks_export"

// maxSessionHours rejects durations no single workout can have.
const maxSessionHours = 24

var (
	ErrEmptyFile        = errors.New("csv file is empty")
	ErrMissingDayColumn = errors.New("csv has no workout day column")
)

// dayLayouts are tried in order when parsing the workout day.
var dayLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// Row is one valid workout from an import file.
type Row struct {
	Line            int       `json:"line"`
	WorkoutDay      time.Time `json:"workout_day"`
	Title           string    `json:"title"`
	WorkoutType     string    `json:"workout_type"`
	Description     string    `json:"description,omitempty"`
	StartTime       string    `json:"start_time,omitempty"`
	PlannedHours    *float64  `json:"planned_hours"`
	ActualHours     *float64  `json:"actual_hours"`
	PlannedKm       *float64  `json:"planned_km"`
	ActualKm        *float64  `json:"actual_km"`
	TSS             *float64  `json:"tss"`
	IF              *float64  `json:"if"`
	PowerAvg        *float64  `json:"power_avg"`
	HRAvg           *float64  `json:"hr_avg"`
	RPE             *float64  `json:"rpe"`
	Feeling         *float64  `json:"feeling"`
	CoachComments   string    `json:"coach_comments,omitempty"`
	AthleteComments string    `json:"athlete_comments,omitempty"`
	Source          string    `json:"source"`
}

// HasActual reports whether the workout was completed (any actual value recorded).
func (r Row) HasActual() bool {
	return r.ActualHours != nil || r.ActualKm != nil
}

// RowError describes a line that was skipped.
type RowError struct {
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
}

// ParseResult holds the valid rows and the per-line errors of one file.
type ParseResult struct {
	Rows   []Row      `json:"rows"`
	Errors []RowError `json:"errors"`
}

// Parse reads a workout CSV. Only an unreadable file or a header without a
// workout day column is an error; bad lines are collected in Errors and the
// rest of the file is still parsed.
func Parse(r io.Reader) (ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ParseResult{}, ErrEmptyFile
	}
	if err != nil {
		return ParseResult{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols := resolveColumns(header)
	if _, ok := cols[fieldWorkoutDay]; !ok {
		return ParseResult{}, ErrMissingDayColumn
	}

	res := ParseResult{Rows: []Row{}, Errors: []RowError{}}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Errors = append(res.Errors, RowError{Line: perr.StartLine, Message: perr.Err.Error()})
				continue
			}
			return res, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(record) {
			continue
		}
		row, rowErr := parseRecord(record, cols, line)
		if rowErr != nil {
			res.Errors = append(res.Errors, *rowErr)
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseRecord(record []string, cols map[field]int, line int) (Row, *RowError) {
	get := func(f field) string {
		i, ok := cols[f]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := Row{
		Line:            line,
		Title:           get(fieldTitle),
		WorkoutType:     normalizeWorkoutType(get(fieldWorkoutType)),
		Description:     get(fieldDescription),
		StartTime:       get(fieldStartTime),
		CoachComments:   get(fieldCoachComments),
		AthleteComments: get(fieldAthleteComments),
		Source:          get(fieldSource),
	}
	if row.Source == "" {
		row.Source = DefaultSource
	}

	dayText := get(fieldWorkoutDay)
	if dayText == "" {
		return Row{}, &RowError{Line: line, Field: "workout_day", Message: "missing date"}
	}
	day, ok := parseDay(dayText)
	if !ok {
		return Row{}, &RowError{Line: line, Field: "workout_day", Message: fmt.Sprintf("invalid date %q", dayText)}
	}
	row.WorkoutDay = day

	numeric := []struct {
		name        string
		f           field
		dst         **float64
		nonNegative bool
		max         float64 // 0 means unbounded
	}{
		{"planned_hours", fieldPlannedHours, &row.PlannedHours, true, maxSessionHours},
		{"actual_hours", fieldActualHours, &row.ActualHours, true, maxSessionHours},
		{"planned_km", fieldPlannedKm, &row.PlannedKm, true, 0},
		{"actual_km", fieldActualKm, &row.ActualKm, true, 0},
		{"tss", fieldTSS, &row.TSS, true, 0},
		{"if", fieldIF, &row.IF, true, 0},
		{"power_avg", fieldPowerAvg, &row.PowerAvg, true, 0},
		{"hr_avg", fieldHRAvg, &row.HRAvg, true, 0},
		{"rpe", fieldRPE, &row.RPE, false, 0},
		{"feeling", fieldFeeling, &row.Feeling, false, 0},
	}
	for _, n := range numeric {
		v, err := parseNumber(get(n.f))
		if err != nil {
			return Row{}, &RowError{Line: line, Field: n.name, Message: err.Error()}
		}
		if v != nil && n.nonNegative && *v < 0 {
			return Row{}, &RowError{Line: line, Field: n.name, Message: "must not be negative"}
		}
		if v != nil && n.max > 0 && *v > n.max {
			return Row{}, &RowError{Line: line, Field: n.name, Message: fmt.Sprintf("must not exceed %g", n.max)}
		}
		*n.dst = v
	}

	// Raw exports carry distances in meters.
	for _, m := range []struct {
		f   field
		dst **float64
	}{
		{fieldPlannedMeters, &row.PlannedKm},
		{fieldActualMeters, &row.ActualKm},
	} {
		if *m.dst != nil {
			continue
		}
		v, err := parseNumber(get(m.f))
		if err != nil {
			return Row{}, &RowError{Line: line, Field: "distance", Message: err.Error()}
		}
		if v != nil {
			km := *v / 1000
			*m.dst = &km
		}
	}
	return row, nil
}

func parseDay(s string) (time.Time, bool) {
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseNumber returns nil for blank cells. A lone decimal comma ("1,5") is
// accepted.
func parseNumber(s string) (*float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &v, nil
}

func normalizeWorkoutType(s string) string {
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}
