package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeLabel(label string) string {
	label = strings.ToLower(label)
	label = strings.Trim(label, " \n\t")
	label = whitespaceRegex.ReplaceAllString(label, "")
	return label
}

func MatchLabel(label string, matchers []string) bool {
	label = NormalizeLabel(label)
	for _, m := range matchers {
		if strings.Contains(label, m) {
			return true
		}
	}
	return false
}

var ErrNotANumber = fmt.Errorf("not a number")

// pt-BR grouping: 3.712,00
var localizedNumberRegex = regexp.MustCompile(`^\d{1,3}(\.\d{3})*(,\d+)?$`)

// ParseLocalizedFloat parses the numeric text the dashboard renders.
// Grouped pt-BR numbers have their grouping dots stripped and the
// decimal comma converted; anything else is parsed as-is.
func ParseLocalizedFloat(raw string) (float64, error) {
	t := strings.TrimSpace(raw)
	if localizedNumberRegex.MatchString(t) {
		t = strings.ReplaceAll(t, ".", "")
		t = strings.ReplaceAll(t, ",", ".")
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	return v, nil
}
