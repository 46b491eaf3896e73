package nutrition

// rationales must have an entry for every DayType.
var rationales = map[DayType]string{
	DayRest:     "Rest day: calories sit at your goal baseline with no training add-on. Keep protein steady to support recovery and let carbohydrates fill the remainder.",
	DayEasy:     "Easy day: a small training add-on covers light sessions. Carbohydrates rise slightly while protein and fat stay at their per-kg levels.",
	DayModerate: "Moderate day: an hour or more of training raises energy needs. The extra calories go to carbohydrates to fuel and refill glycogen.",
	DayHard:     "Hard day: two or more hours of training carry the largest add-on. Prioritise carbohydrates before, during and after sessions to sustain output.",
}

// BuildRationale explains the targets in one sentence pair keyed on the day type.
func BuildRationale(t Targets) string {
	if s, ok := rationales[t.DayType]; ok {
		return s
	}
	return rationales[DayRest]
}
