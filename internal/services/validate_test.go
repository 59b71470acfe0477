package services

import (
	"testing"

	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
)

func TestCheckText(t *testing.T) {
	cases := []struct {
		name  string
		value string
		msg   string
	}{
		{"plain", "Improve Python skills", ""},
		{"newlines allowed", "line one\nline two\ttabbed", ""},
		{"accented latin", "Café résumé", ""},
		{"all cyrillic word", "\u041f\u0440\u0438\u0432\u0435\u0442 world", ""},
		{"control char", "bad\x07bell", "goal_name: " + msgInvalidCharacter},
		{"invalid utf8", "bad\xffbyte", "goal_name: " + msgInvalidCharacter},
		{"mixed script", "p\u0430ypal", msgHomoglyph},
		{"greek omicron", "g\u03bfal", msgHomoglyph},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkText("test", "goal_name", tc.value)
			if tc.msg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errs.IsCode(err, errs.CodeValidation) || errs.MessageOf(err) != tc.msg {
				t.Fatalf("want %q got %v", tc.msg, err)
			}
		})
	}
}

func TestCheckChoiceAndLength(t *testing.T) {
	if err := checkChoice("test", "priority", "High", []string{"High", "Low"}); err != nil {
		t.Fatalf("checkChoice: %v", err)
	}
	if err := checkChoice("test", "priority", "high", []string{"High", "Low"}); err == nil {
		t.Fatalf("checkChoice: choices are case sensitive")
	}
	if err := checkMaxLen("test", "current_proficiency", "ééééé", 5); err != nil {
		t.Fatalf("checkMaxLen counts runes: %v", err)
	}
	if err := checkMaxLen("test", "current_proficiency", "123456", 5); err == nil {
		t.Fatalf("checkMaxLen: want error")
	}
}
