package tpimport

import (
	"strings"
	"unicode"
)

type field int

const (
	fieldWorkoutDay field = iota
	fieldWorkoutType
	fieldTitle
	fieldDescription
	fieldStartTime
	fieldPlannedHours
	fieldActualHours
	fieldPlannedKm
	fieldActualKm
	fieldPlannedMeters
	fieldActualMeters
	fieldTSS
	fieldIF
	fieldPowerAvg
	fieldHRAvg
	fieldRPE
	fieldFeeling
	fieldCoachComments
	fieldAthleteComments
	fieldSource
)

// fieldAliases lists the header spellings accepted for each field, covering
// the raw TrainingPeaks export and the normalized workouts CSV. Headers are
// compared after simplifyHeader, so case, spaces and punctuation don't matter.
var fieldAliases = map[field][]string{
	fieldWorkoutDay:      {"workout_day", "WorkoutDay", "date", "day"},
	fieldWorkoutType:     {"workout_type", "WorkoutType", "type"},
	fieldTitle:           {"title", "Title"},
	fieldDescription:     {"description", "WorkoutDescription"},
	fieldStartTime:       {"start_time", "WorkoutStartTime", "StartTime"},
	fieldPlannedHours:    {"planned_hours", "PlannedDuration (hours)", "PlannedDurationHours", "PlannedDuration"},
	fieldActualHours:     {"actual_hours", "TimeTotalInHours"},
	fieldPlannedKm:       {"planned_km"},
	fieldActualKm:        {"actual_km"},
	fieldPlannedMeters:   {"PlannedDistanceInMeters"},
	fieldActualMeters:    {"DistanceInMeters"},
	fieldTSS:             {"tss", "TSS"},
	fieldIF:              {"if", "IF"},
	fieldPowerAvg:        {"power_avg", "PowerAverage"},
	fieldHRAvg:           {"hr_avg", "HeartRateAverage"},
	fieldRPE:             {"rpe", "Rpe"},
	fieldFeeling:         {"feeling", "Feeling"},
	fieldCoachComments:   {"coach_comments", "CoachComments"},
	fieldAthleteComments: {"athlete_comments", "AthleteComments"},
	fieldSource:          {"source"},
}

func simplifyHeader(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveColumns maps each known field to its column index in header. The
// first alias present wins; unknown columns are ignored.
func resolveColumns(header []string) map[field]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		key := simplifyHeader(h)
		if _, dup := byName[key]; !dup {
			byName[key] = i
		}
	}

	cols := make(map[field]int)
	for f, aliases := range fieldAliases {
		for _, a := range aliases {
			if i, ok := byName[simplifyHeader(a)]; ok {
				cols[f] = i
				break
			}
		}
	}
	return cols
}
