package validation

import (
	"strings"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "hello", want: "hello"},
		{name: "trims whitespace", in: "  hello  ", want: "hello"},
		{name: "keeps newlines and tabs", in: "a\n\tb", want: "a\n\tb"},
		{name: "strips control characters", in: "a\x00b\x1bc", want: "abc"},
		{name: "drops invalid utf8", in: "caf\xff\xe9", want: "caf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.in); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateSecretKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid key", key: "giardino-di-prova"},
		{name: "empty", key: "", wantErr: true},
		{name: "only whitespace", key: "   ", wantErr: true},
		{name: "embedded space", key: "my garden", wantErr: true},
		{name: "control character", key: "key\x00", wantErr: true},
		{name: "too long", key: strings.Repeat("k", MaxSecretKeyLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateSecretKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSecretKey(%q) err = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestStruct(t *testing.T) {
	t.Parallel()

	type req struct {
		Title string `validate:"required,max=10"`
	}

	if err := Struct(&req{Title: "ok"}); err != nil {
		t.Errorf("valid struct: %v", err)
	}
	if err := Struct(&req{}); err == nil {
		t.Error("expected an error for a missing required field")
	}
	if err := Struct(&req{Title: "this title is far too long"}); err == nil {
		t.Error("expected an error for an overlong field")
	}
}
