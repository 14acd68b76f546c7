package store

import (
	"github.com/pkg/errors"

	"github.com/CamHV12/edupulse/internal/exam"
)

var ErrUnknownSheet = errors.New("unknown sheet")

type column struct {
	name string
	def  any // written when the field is missing or empty
}

// sheetColumns maps API field names to the header of each sheet column.
var sheetColumns = map[string]map[string]column{
	exam.SheetUsers: {
		"account":         {name: "Account"},
		"name":            {name: "Name"},
		"class_name":      {name: "Class"},
		"email":           {name: "Email", def: ""},
		"role":            {name: "Role"},
		"active":          {name: "Active", def: "ON"},
		"progress":        {name: "Progress", def: "OFF"},
		"password":        {name: "Password", def: ""},
		"subject_teacher": {name: "Subject Teacher", def: ""},
	},
	exam.SheetSubjects: {
		"id":    {name: "Stt"},
		"name":  {name: "Name"},
		"grade": {name: "Grade"},
	},
	exam.SheetLessons: {
		"id":              {name: "Stt"},
		"subject_id":      {name: "Subject_id"},
		"name":            {name: "Name"},
		"title":           {name: "Title"},
		"timeout_minutes": {name: "Timeout (minute)"},
		"question_count":  {name: "Count"},
		"target_score":    {name: "Target score"},
	},
	exam.SheetQuestions: {
		"id":         {name: "stt"},
		"lesson_id":  {name: "lesson_id"},
		"type":       {name: "question_type"},
		"level":      {name: "quiz_level"},
		"point":      {name: "point"},
		"text":       {name: "question_text"},
		"image_id":   {name: "image_id"},
		"option_a":   {name: "option_A"},
		"option_b":   {name: "option_B"},
		"option_c":   {name: "option_C"},
		"option_d":   {name: "option_D"},
		"answer_key": {name: "answer_key"},
		"solution":   {name: "solution"},
	},
}

// IDKeys is the identifying column of each sheet.
var IDKeys = map[string]string{
	exam.SheetUsers:     "Account",
	exam.SheetSubjects:  "Stt",
	exam.SheetLessons:   "Stt",
	exam.SheetQuestions: "stt",
}

// Columns renames item's fields to the sheet's headers and fills defaults.
// Fields already named after a header pass through; unknown fields are
// dropped.
func Columns(sheet string, item map[string]any) (map[string]any, error) {
	cols, ok := sheetColumns[sheet]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSheet, "%q", sheet)
	}
	headers := make(map[string]bool, len(cols))
	for _, c := range cols {
		headers[c.name] = true
	}
	out := make(map[string]any, len(cols))
	for k, v := range item {
		if c, ok := cols[k]; ok {
			out[c.name] = v
		} else if headers[k] {
			out[k] = v
		}
	}
	for _, c := range cols {
		if c.def != nil && !truthy(out[c.name]) {
			out[c.name] = c.def
		}
	}
	return out, nil
}
