package services

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
)

const (
	msgInvalidCharacter = "Invalid character used"
	msgHomoglyph        = "Data contains homoglyphs and can be dangerous. Check logs for more details"
	msgParentIDUpdate   = "Cannot change the parent id"
	msgElrrSync         = "Failed to sync with ELRR, please check logs for details"
	msgEccrValidation   = "ECCR validation failed, please check logs for details"
	msgXdsValidation    = "XDS validation failed, please check logs for details"
)

// checkText rejects control characters other than tab/newline/CR, invalid
// UTF-8, and words that mix Latin with Cyrillic or Greek letters.
func checkText(op, field, value string) error {
	if !utf8.ValidString(value) {
		return errs.Validation(op, field+": "+msgInvalidCharacter)
	}
	for _, r := range value {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return errs.Validation(op, field+": "+msgInvalidCharacter)
		}
	}
	for _, word := range strings.Fields(value) {
		if mixedScript(word) {
			return errs.Validation(op, msgHomoglyph)
		}
	}
	return nil
}

func mixedScript(word string) bool {
	var latin, other bool
	for _, r := range word {
		switch {
		case unicode.Is(unicode.Latin, r):
			latin = true
		case unicode.Is(unicode.Cyrillic, r), unicode.Is(unicode.Greek, r):
			other = true
		}
		if latin && other {
			return true
		}
	}
	return false
}

func checkTexts(op string, fields map[string]string) error {
	for field, v := range fields {
		if err := checkText(op, field, v); err != nil {
			return err
		}
	}
	return nil
}

func checkChoice(op, field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return errs.Validation(op, field+": \""+value+"\" is not a valid choice.")
}

func checkMaxLen(op, field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return errs.Validation(op, field+": ensure this field has no more than "+strconv.Itoa(max)+" characters.")
	}
	return nil
}

// Optional distinguishes an absent patch field from an explicit value,
// including an explicit null.
type Optional[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }
