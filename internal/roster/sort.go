package roster

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/CamHV12/edupulse/internal/exam"
)

type SortKey string

const (
	ByClass   SortKey = "className"
	ByName    SortKey = "name"
	BySubject SortKey = "subjectName"
	ByLesson  SortKey = "lessonName"
	ByScore   SortKey = "score"
	ByStatus  SortKey = "status"
)

var ErrUnknownSortKey = errors.New("unknown roster sort column")

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case ByClass, ByName, BySubject, ByLesson, ByScore, ByStatus:
		return k, nil
	case "":
		return ByClass, nil
	}
	return "", errors.Wrapf(ErrUnknownSortKey, "%q", s)
}

// Sort is the active column and direction.
type Sort struct {
	Key  SortKey `json:"key"`
	Desc bool    `json:"desc"`
}

// DefaultSort is by class, ascending.
var DefaultSort = Sort{Key: ByClass}

// Toggle is a click on a column header: the active ascending column flips
// to descending, anything else sorts ascending.
func (s Sort) Toggle(k SortKey) Sort {
	if s.Key == k && !s.Desc {
		return Sort{Key: k, Desc: true}
	}
	return Sort{Key: k}
}

// SortRows sorts in place. Text columns use natural order so "9/2" comes
// before "9/10"; the score column sorts by value.
func SortRows(rows []Row, s Sort) {
	c := exam.NaturalCollator()
	text := func(r Row) string {
		switch s.Key {
		case ByName:
			return r.StudentName
		case BySubject:
			return r.SubjectName
		case ByLesson:
			return r.LessonName
		case ByStatus:
			return string(r.Status)
		default:
			return r.ClassName
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		var cmp int
		if s.Key == ByScore {
			switch {
			case rows[i].Score < rows[j].Score:
				cmp = -1
			case rows[i].Score > rows[j].Score:
				cmp = 1
			}
		} else {
			cmp = c.CompareString(text(rows[i]), text(rows[j]))
		}
		if s.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// Classes lists the distinct class labels of students in natural order.
func Classes(students []exam.User) []string {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, st := range students {
		if !seen[st.ClassName] {
			seen[st.ClassName] = true
			out = append(out, st.ClassName)
		}
	}
	exam.SortNatural(out)
	return out
}

// LessonNames lists lesson names for the lesson filter, narrowed to the
// subjects named subject unless it is empty or "ALL".
func LessonNames(subject string, subjects []exam.Subject, lessons []exam.Lesson) []string {
	ids := map[int]bool{}
	for _, s := range subjects {
		if unset(subject) || s.Name == subject {
			ids[s.ID] = true
		}
	}
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, l := range lessons {
		if ids[l.SubjectID] && !seen[l.Name] {
			seen[l.Name] = true
			out = append(out, l.Name)
		}
	}
	return out
}
