package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

// unitAliases maps the spellings found in imported recipes to a canonical
// unit. Lookups are lowercase with any trailing period or comma removed.
var unitAliases = map[string]string{
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"c": "cup", "cup": "cup", "cups": "cup",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"pt": "pt", "pint": "pt", "pints": "pt",
	"qt": "qt", "quart": "qt", "quarts": "qt",
	"g": "g", "gram": "g", "grams": "g",
	"kg": "kg", "ml": "ml", "l": "l",
	"stick": "stick", "sticks": "stick",
	"pkg": "package", "package": "package", "packages": "package",
	"box": "box", "boxes": "box",
	"can": "can", "cans": "can",
	"carton": "carton", "cartons": "carton",
	"container": "container", "containers": "container",
	"jar": "jar", "jars": "jar",
	"dash": "dash", "pinch": "pinch",
}

var unicodeFractions = strings.NewReplacer(
	"¼", " 1/4", "½", " 1/2", "¾", " 3/4",
	"⅓", " 1/3", "⅔", " 2/3",
	"⅛", " 1/8", "⅜", " 3/8", "⅝", " 5/8", "⅞", " 7/8",
	"–", "-", "—", "-",
)

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	packageParens = regexp.MustCompile(`\(\s*(\d+\s+\d+\s*/\s*\d+|\d+\s*/\s*\d+|[\d.]+)\s*([a-zA-Z.]+)\s*\)`)
	leadingQty    = regexp.MustCompile(`^(\d+\s+\d+\s*/\s*\d+|\d+\s*/\s*\d+|\d+(?:\.\d+)?)\b\s*(.*)$`)
	dashOrPinch   = regexp.MustCompile(`(?i)^(dash|pinch)\s+of\s+(.*)$`)
	seasoningLine = regexp.MustCompile(`(?i)^(salt|pepper|water|flour|sugar)\b`)
	slashSpaces   = regexp.MustCompile(`\s*/\s*`)
)

// ParsedIngredient is the structured form of a free-text ingredient line.
// Nil quantities mean the line carried none ("salt to taste").
type ParsedIngredient struct {
	Quantity    *float64 `json:"quantity"`
	Unit        string   `json:"unit"`
	Name        string   `json:"name"`
	PackageQty  *float64 `json:"package_qty,omitempty"`
	PackageUnit string   `json:"package_unit,omitempty"`
}

// NormalizeUnit returns the canonical unit for tok, or "" if unknown.
func NormalizeUnit(tok string) string {
	t := strings.TrimRight(strings.ToLower(strings.TrimSpace(tok)), ".,")
	return unitAliases[t]
}

// ParseIngredientLine splits lines like "1 1/2 cups flour" or
// "1 (8 oz.) pkg. cream cheese" into quantity, unit and name.
func ParseIngredientLine(line string) ParsedIngredient {
	raw := normalizeLine(line)
	if raw == "" {
		return ParsedIngredient{}
	}

	lower := strings.ToLower(raw)
	if seasoningLine.MatchString(raw) && (strings.Contains(lower, "to taste") || strings.Contains(lower, "and pepper")) {
		return ParsedIngredient{Name: raw}
	}

	if m := dashOrPinch.FindStringSubmatch(raw); m != nil {
		one := 1.0
		return ParsedIngredient{Quantity: &one, Unit: NormalizeUnit(m[1]), Name: strings.TrimSpace(m[2])}
	}

	var p ParsedIngredient
	raw, p.PackageQty, p.PackageUnit = extractPackage(raw)

	m := leadingQty.FindStringSubmatch(raw)
	if m == nil {
		p.Name = raw
		return p
	}
	p.Quantity = parseQuantity(m[1])
	rest := strings.TrimSpace(m[2])
	if rest == "" {
		return p
	}

	first, name, _ := strings.Cut(rest, " ")
	unit := NormalizeUnit(first)
	if unit == "" {
		// "2 eggs", "1 medium onion": the token after the number is part of the name.
		p.Name = rest
		return p
	}
	p.Unit = unit
	name = strings.TrimSpace(name)
	if strings.HasPrefix(strings.ToLower(name), "of ") {
		name = strings.TrimSpace(name[3:])
	}
	p.Name = name
	return p
}

func normalizeLine(s string) string {
	s = unicodeFractions.Replace(s)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

func extractPackage(s string) (string, *float64, string) {
	loc := packageParens.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, nil, ""
	}
	qty := parseQuantity(s[loc[2]:loc[3]])
	unit := NormalizeUnit(s[loc[4]:loc[5]])
	rest := strings.TrimSpace(spaceRun.ReplaceAllString(s[:loc[0]]+" "+s[loc[1]:], " "))
	return rest, qty, unit
}

// parseQuantity handles "2", "1.5", "1/2" and "1 1/2". Zero denominators
// yield nil.
func parseQuantity(s string) *float64 {
	fields := strings.Fields(slashSpaces.ReplaceAllString(s, "/"))
	total := 0.0
	for _, f := range fields {
		v, ok := parseNumber(f)
		if !ok {
			return nil
		}
		total += v
	}
	if len(fields) == 0 {
		return nil
	}
	return &total
}

func parseNumber(tok string) (float64, bool) {
	if num, den, ok := strings.Cut(tok, "/"); ok {
		n, err1 := strconv.Atoi(num)
		d, err2 := strconv.Atoi(den)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return float64(n) / float64(d), true
	}
	v, err := strconv.ParseFloat(tok, 64)
	return v, err == nil
}
