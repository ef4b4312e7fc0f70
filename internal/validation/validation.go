package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for request structs.
var validate = validator.New()

// Struct validates a request struct against its validate tags.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("field %s failed validation (%s)", f.Field(), f.Tag())
		}
		return err
	}
	return nil
}

const (
	// MaxSecretKeyLength bounds login keys.
	MaxSecretKeyLength = 128
	// MaxTitleLength bounds topic titles.
	MaxTitleLength = 200
	// MaxCardFieldLength bounds flashcard questions and answers.
	MaxCardFieldLength = 4000
)

// SanitizeText trims whitespace and strips control characters, keeping
// newlines and tabs. Invalid UTF-8 is dropped.
func SanitizeText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// ValidateSecretKey checks a login key for shape problems before it touches
// storage.
func ValidateSecretKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("secret key is required")
	}
	if len(key) > MaxSecretKeyLength {
		return fmt.Errorf("secret key exceeds %d characters", MaxSecretKeyLength)
	}
	for _, r := range key {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return fmt.Errorf("secret key contains whitespace or control characters")
		}
	}
	return nil
}
