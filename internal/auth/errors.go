package auth

import "errors"

// Rejection reasons. Every one of them is reported to the client as 403.
var (
	ErrNoCredential   = errors.New("missing bearer credential")
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("token signature mismatch")
	ErrMissingSubject = errors.New("token has no subject")
	ErrExpiredToken   = errors.New("token expired")
	ErrUnknownSubject = errors.New("token subject does not resolve to a user")
)

// Reason returns a short, stable label for a rejection error, suitable for
// metrics and logs.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNoCredential):
		return "no_credential"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrMissingSubject):
		return "missing_subject"
	case errors.Is(err, ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, ErrUnknownSubject):
		return "unknown_subject"
	default:
		return "unknown"
	}
}
