package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	// MinPasswordLength matches what existing clients already enforce.
	MinPasswordLength = 6
	// MaxPasswordLength is the bcrypt input limit in bytes.
	MaxPasswordLength = 72
	// MaxTitleLength bounds post titles.
	MaxTitleLength = 300
	// MaxContentLength bounds post bodies.
	MaxContentLength = 100000
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	if err := Validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("failed to register notblank validator: %v", err))
	}
	if err := Validate.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(fmt.Sprintf("failed to register maxbytes validator: %v", err))
	}
}

// maxBytes bounds the encoded length of a string field. max counts runes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic(fmt.Sprintf("maxbytes: bad parameter %q", fl.Param()))
	}
	return len(fl.Field().String()) <= limit
}

// SignupRequest is the body of POST /user/signup.
type SignupRequest struct {
	Email    string  `json:"email" validate:"required,email,max=320"`
	Password string  `json:"password" validate:"required,min=6,maxbytes=72"`
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
}

// SigninRequest is the body of POST /user/signin.
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

// PostRequest is the body of post create and update.
type PostRequest struct {
	Title   string `json:"title" validate:"notblank,max=300"`
	Content string `json:"content" validate:"max=100000"`
}

// Struct validates v against its tags.
func Struct(v any) error {
	return Validate.Struct(v)
}

// SanitizeText trims whitespace and removes control characters other than newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
