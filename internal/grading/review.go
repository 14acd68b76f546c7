package grading

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/CamHV12/edupulse/internal/exam"
)

var ErrUnreadableAnswers = errors.New("could not read answer data")

// Notices shown instead of a review body.
const (
	NoticeUnreadable       = "could not read answer data"
	NoticeNoData           = "no answer data"
	NoticeNothingAnswered  = "the student has not answered any question"
	NoticeUnknownQuestions = "question details not found"
	NoticeAllCorrect       = "every answer is correct"
)

// DecodeAnswers reads a stored answer map. Three shapes are accepted:
//
//	{"12":"A"}
//	{"12":{"answer":"A"}}            (or "studentAnswer")
//	[{"questionId":12,"answer":"A"}] (id falls back to "stt", then position+1)
//
// Blank answers are dropped. An empty string or JSON null decodes to a nil
// map and no error.
func DecodeAnswers(raw string) (map[int]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, errors.WithMessage(ErrUnreadableAnswers, err.Error())
	}
	out := map[int]string{}
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		for i, item := range t {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			id := intField(obj["questionId"])
			if id == 0 {
				id = intField(obj["stt"])
			}
			if id == 0 {
				id = i + 1
			}
			if ans := answerField(obj); ans != "" {
				out[id] = ans
			}
		}
	case map[string]interface{}:
		for k, val := range t {
			id, ok := leadingInt(k)
			if !ok {
				continue
			}
			var ans string
			switch a := val.(type) {
			case string:
				ans = a
			case map[string]interface{}:
				ans = answerField(a)
			}
			if ans != "" {
				out[id] = ans
			}
		}
	}
	return out, nil
}

func answerField(obj map[string]interface{}) string {
	if s := stringField(obj["answer"]); s != "" {
		return s
	}
	return stringField(obj["studentAnswer"])
}

func stringField(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func intField(v interface{}) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, _ := leadingInt(t)
		return n
	}
	return 0
}

// leadingInt parses an optional sign and the digits that follow it,
// ignoring anything after them ("12abc" -> 12).
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

type ReviewItem struct {
	Question exam.Question `json:"question"`
	Answer   string        `json:"answer"`
	Answered bool          `json:"answered"`
	Correct  bool          `json:"correct"`
}

// Review is a per-question breakdown of one attempt. When Notice is set,
// Items may be empty and the notice is what the viewer should see.
type Review struct {
	ResultID string       `json:"result_id,omitempty"`
	Correct  int          `json:"correct"`
	Total    int          `json:"total"`
	Items    []ReviewItem `json:"items"`
	Notice   string       `json:"notice,omitempty"`
}

// ReviewAttempt reviews a quiz that was just taken: every presented question,
// in presentation order, answered or not.
func ReviewAttempt(questions []exam.Question, answers map[int]string, wrongOnly bool) Review {
	items := make([]ReviewItem, 0, len(questions))
	for _, q := range questions {
		ans := answers[q.ID]
		items = append(items, ReviewItem{
			Question: q,
			Answer:   ans,
			Answered: strings.TrimSpace(ans) != "",
			Correct:  Correct(q, ans),
		})
	}
	return finish(Review{}, items, wrongOnly)
}

// ReviewResult reviews a stored result against the question bank. Only
// questions the student answered and that still exist are listed, by id.
func ReviewResult(r exam.Result, bank []exam.Question, wrongOnly bool) Review {
	rev := Review{ResultID: r.ID}
	answers, err := DecodeAnswers(r.Answers)
	switch {
	case err != nil:
		rev.Notice = NoticeUnreadable
		return rev
	case answers == nil:
		rev.Notice = NoticeNoData
		return rev
	case len(answers) == 0:
		rev.Notice = NoticeNothingAnswered
		return rev
	}

	byID := make(map[int]exam.Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}
	items := make([]ReviewItem, 0, len(answers))
	for id, ans := range answers {
		q, ok := byID[id]
		if !ok {
			continue
		}
		items = append(items, ReviewItem{Question: q, Answer: ans, Answered: true, Correct: Correct(q, ans)})
	}
	if len(items) == 0 {
		rev.Notice = NoticeUnknownQuestions
		return rev
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Question.ID < items[j].Question.ID })
	return finish(rev, items, wrongOnly)
}

func finish(rev Review, items []ReviewItem, wrongOnly bool) Review {
	rev.Total = len(items)
	for _, it := range items {
		if it.Correct {
			rev.Correct++
		}
	}
	if !wrongOnly {
		rev.Items = items
		return rev
	}
	rev.Items = make([]ReviewItem, 0, len(items))
	for _, it := range items {
		if !it.Correct {
			rev.Items = append(rev.Items, it)
		}
	}
	if len(rev.Items) == 0 && len(items) > 0 {
		rev.Notice = NoticeAllCorrect
	}
	return rev
}
