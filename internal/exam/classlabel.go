package exam

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ExtractGrade returns the first run of ASCII digits in a class label,
// e.g. "12A1" -> 12, "9/1" -> 9. Labels without digits yield 0.
func ExtractGrade(label string) int {
	start := -1
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c >= '0' && c <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return atoiOrZero(label[start:i])
		}
	}
	if start >= 0 {
		return atoiOrZero(label[start:])
	}
	return 0
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// IsGradeLevel reports whether a label names a whole grade ("9") rather
// than one class of it ("9/1", "9A"). An empty label counts as grade level.
func IsGradeLevel(label string) bool {
	l := strings.TrimSpace(label)
	return l == "" || l == strconv.Itoa(ExtractGrade(l))
}

// NaturalCollator orders strings the way people read class labels and
// names: digit runs compare by value, so "9/2" < "9/10".
// Collators are not safe for concurrent use; make one per sort.
func NaturalCollator() *collate.Collator {
	return collate.New(language.Vietnamese, collate.Numeric)
}

// SortNatural sorts ss in place with NaturalCollator.
func SortNatural(ss []string) {
	c := NaturalCollator()
	sort.SliceStable(ss, func(i, j int) bool { return c.CompareString(ss[i], ss[j]) < 0 })
}
