package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CamHV12/edupulse/internal/exam"
)

func TestDecodeAnswersShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want map[int]string
	}{
		{"flat object", `{"12":"A","13":"B, C"}`, map[int]string{12: "A", 13: "B, C"}},
		{"nested object", `{"12":{"answer":"A"},"13":{"studentAnswer":"D"}}`, map[int]string{12: "A", 13: "D"}},
		{"array with ids", `[{"questionId":12,"answer":"A"},{"questionId":"13","studentAnswer":"B"}]`, map[int]string{12: "A", 13: "B"}},
		{"array falls back to stt then position", `[{"stt":40,"answer":"A"},{"answer":"C"}]`, map[int]string{40: "A", 2: "C"}},
		{"blank answers dropped", `{"1":"","2":{"answer":""},"3":"B"}`, map[int]string{3: "B"}},
		{"non-numeric keys skipped", `{"x":"A","7":"B"}`, map[int]string{7: "B"}},
		{"nothing answered", `{}`, map[int]string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeAnswers(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeAnswersNoData(t *testing.T) {
	for _, raw := range []string{"", "  ", "null"} {
		got, err := DecodeAnswers(raw)
		assert.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestDecodeAnswersUnreadable(t *testing.T) {
	_, err := DecodeAnswers(`{"1":"A"`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableAnswers)
}

func TestDecodeRoundTripsEncode(t *testing.T) {
	in := map[int]string{3: "A", 10: "B, C"}
	out, err := DecodeAnswers(EncodeAnswers(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func bank() []exam.Question {
	return []exam.Question{
		{ID: 1, Type: exam.ChooseOne, AnswerKey: "A"},
		{ID: 2, Type: exam.ChooseMultiple, AnswerKey: "B,C"},
		{ID: 3, Type: exam.TrueFalse, AnswerKey: "B"},
	}
}

func TestReviewResult(t *testing.T) {
	r := exam.Result{ID: "RES_1", Answers: `{"3":"A","1":"a","99":"A"}`}
	rev := ReviewResult(r, bank(), false)

	assert.Empty(t, rev.Notice)
	require.Len(t, rev.Items, 2)
	assert.Equal(t, 1, rev.Items[0].Question.ID)
	assert.True(t, rev.Items[0].Correct)
	assert.Equal(t, 3, rev.Items[1].Question.ID)
	assert.False(t, rev.Items[1].Correct)
	assert.Equal(t, 1, rev.Correct)
	assert.Equal(t, 2, rev.Total)

	wrong := ReviewResult(r, bank(), true)
	require.Len(t, wrong.Items, 1)
	assert.Equal(t, 3, wrong.Items[0].Question.ID)
	assert.Equal(t, 1, wrong.Correct)
}

func TestReviewResultNotices(t *testing.T) {
	cases := map[string]string{
		`not json`:   NoticeUnreadable,
		``:           NoticeNoData,
		`{}`:         NoticeNothingAnswered,
		`{"50":"A"}`: NoticeUnknownQuestions,
		`{"1":"A"}`:  "",
	}
	for raw, want := range cases {
		rev := ReviewResult(exam.Result{ID: "r", Answers: raw}, bank(), false)
		assert.Equal(t, want, rev.Notice, raw)
	}

	allRight := ReviewResult(exam.Result{Answers: `{"1":"A"}`}, bank(), true)
	assert.Empty(t, allRight.Items)
	assert.Equal(t, NoticeAllCorrect, allRight.Notice)
}

func TestReviewAttemptListsUnanswered(t *testing.T) {
	rev := ReviewAttempt(bank(), map[int]string{2: "C, B"}, false)
	require.Len(t, rev.Items, 3)
	assert.False(t, rev.Items[0].Answered)
	assert.False(t, rev.Items[0].Correct)
	assert.True(t, rev.Items[1].Correct)
	assert.Equal(t, 1, rev.Correct)
	assert.Equal(t, 3, rev.Total)
}
