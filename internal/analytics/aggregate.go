package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/CamHV12/edupulse/internal/exam"
)

// LeaderboardSize is how many students the ranking shows.
const LeaderboardSize = 5

const (
	MsgNoRanking = "no student ranking yet"
	MsgNoRows    = "no results match the filters"
)

type Ranked struct {
	Student   string  `json:"student"`
	Best      float64 `json:"best"`
	BestLabel string  `json:"best_label"`
}

type Row struct {
	ResultID   string      `json:"result_id"`
	Student    string      `json:"student"`
	Class      string      `json:"class"`
	Subject    string      `json:"subject"`
	Lesson     string      `json:"lesson"`
	CreatedAt  string      `json:"created_at"`
	Score      float64     `json:"score"`
	ScoreLabel string      `json:"score_label"`
	Status     exam.Status `json:"status"`
}

// Report is the analytics view for one filter state. Counts, pass rate and
// leaderboard ignore the chart filters; Rows honour them.
type Report struct {
	Filters     Filters  `json:"filters"`
	Options     Options  `json:"options"`
	Total       int      `json:"total"`
	Pass        int      `json:"pass"`
	Fail        int      `json:"fail"`
	PassRate    *int     `json:"pass_rate"` // nil when there is nothing to rate
	Leaderboard []Ranked `json:"leaderboard"`
	Rows        []Row    `json:"rows"`
	Notice      string   `json:"notice,omitempty"`
	RowsNotice  string   `json:"rows_notice,omitempty"`
}

func matchStructure(f Filters, r exam.Result) bool {
	class := strings.TrimSpace(r.ClassName)
	return (f.Grade == All || strconv.Itoa(exam.ExtractGrade(class)) == f.Grade) &&
		(f.Class == All || class == f.Class) &&
		(f.Subject == All || r.SubjectName == f.Subject) &&
		(f.Lesson == All || r.LessonName == f.Lesson)
}

func matchChart(f Filters, r exam.Result) bool {
	return (f.Status == All || string(r.Status) == f.Status) &&
		(f.Student == "" || r.StudentName == f.Student)
}

// Aggregate computes the report for f.
func (in Input) Aggregate(f Filters) Report {
	rep := Report{Filters: f, Options: in.Options(f)}

	base := make([]exam.Result, 0, len(in.Results))
	for _, r := range in.Results {
		if matchStructure(f, r) {
			base = append(base, r)
		}
	}

	rep.Total = len(base)
	for _, r := range base {
		switch r.Status {
		case exam.StatusPass:
			rep.Pass++
		case exam.StatusFail:
			rep.Fail++
		}
	}
	rep.PassRate = PassRate(rep.Pass, rep.Total)

	rep.Leaderboard = Leaderboard(base, LeaderboardSize)
	if len(rep.Leaderboard) == 0 {
		rep.Notice = MsgNoRanking
	}

	rep.Rows = make([]Row, 0, len(base))
	for _, r := range base {
		if !matchChart(f, r) {
			continue
		}
		rep.Rows = append(rep.Rows, Row{
			ResultID:   r.ID,
			Student:    r.StudentName,
			Class:      r.ClassName,
			Subject:    r.SubjectName,
			Lesson:     r.LessonName,
			CreatedAt:  r.CreatedAt,
			Score:      r.Score,
			ScoreLabel: FormatScore(r.Score),
			Status:     r.Status,
		})
	}
	if len(rep.Rows) == 0 {
		rep.RowsNotice = MsgNoRows
	}
	return rep
}

// PassRate is 100*pass/total rounded to the nearest integer, or nil when
// total is zero.
func PassRate(pass, total int) *int {
	if total <= 0 {
		return nil
	}
	v := int(math.Round(float64(pass) * 100 / float64(total)))
	return &v
}

// Leaderboard ranks students by their best score, highest first. Students
// with equal bests keep the order in which they first appear.
func Leaderboard(results []exam.Result, n int) []Ranked {
	idx := map[string]int{}
	out := make([]Ranked, 0)
	for _, r := range results {
		i, ok := idx[r.StudentName]
		if !ok {
			idx[r.StudentName] = len(out)
			out = append(out, Ranked{Student: r.StudentName, Best: r.Score})
			continue
		}
		if r.Score > out[i].Best {
			out[i].Best = r.Score
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Best > out[j].Best })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].BestLabel = FormatScore(out[i].Best)
	}
	return out
}

// FormatScore renders a score with one decimal.
func FormatScore(v float64) string { return fmt.Sprintf("%.1f", v) }
