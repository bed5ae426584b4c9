package validation

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestSignupRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     SignupRequest
		wantErr bool
	}{
		{"valid", SignupRequest{Email: "a@b.co", Password: "secret1"}, false},
		{"valid with name", SignupRequest{Email: "a@b.co", Password: "secret1", Name: strPtr("Ann")}, false},
		{"empty name allowed", SignupRequest{Email: "a@b.co", Password: "secret1", Name: strPtr("")}, false},
		{"bad email", SignupRequest{Email: "not-an-email", Password: "secret1"}, true},
		{"missing email", SignupRequest{Password: "secret1"}, true},
		{"short password", SignupRequest{Email: "a@b.co", Password: "12345"}, true},
		{"minimum password", SignupRequest{Email: "a@b.co", Password: "123456"}, false},
		{"password over bcrypt limit", SignupRequest{Email: "a@b.co", Password: strings.Repeat("x", 73)}, true},
		{"password at bcrypt limit", SignupRequest{Email: "a@b.co", Password: strings.Repeat("x", 72)}, false},
		{"multibyte password over byte limit", SignupRequest{Email: "a@b.co", Password: strings.Repeat("é", 40)}, true},
		{"multibyte password within byte limit", SignupRequest{Email: "a@b.co", Password: strings.Repeat("é", 36)}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct(%+v) error = %v, wantErr %v", tt.req, err, tt.wantErr)
			}
		})
	}
}

func TestSigninRequest(t *testing.T) {
	t.Parallel()

	if err := Struct(SigninRequest{Email: "a@b.co", Password: "secret1"}); err != nil {
		t.Errorf("valid signin rejected: %v", err)
	}
	if err := Struct(SigninRequest{Email: "a@b.co"}); err == nil {
		t.Error("signin without password accepted")
	}
	if err := Struct(SigninRequest{Email: "a@b.co", Password: strings.Repeat("ü", 40)}); err == nil {
		t.Error("signin with 80-byte password accepted")
	}
}

func TestPostRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     PostRequest
		wantErr bool
	}{
		{"valid", PostRequest{Title: "T", Content: "C"}, false},
		{"empty content allowed", PostRequest{Title: "T"}, false},
		{"missing title", PostRequest{Content: "C"}, true},
		{"blank title", PostRequest{Title: "   ", Content: "C"}, true},
		{"title too long", PostRequest{Title: strings.Repeat("t", MaxTitleLength+1)}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct(%+v) error = %v, wantErr %v", tt.req, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"line\nbreak\tand tab", "line\nbreak\tand tab"},
		{"bell\a and nul\x00", "bell and nul"},
	}
	for _, tt := range tests {
		if got := SanitizeText(tt.in); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
