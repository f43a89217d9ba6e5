package session

import "strings"

// Query parameters used by the sign-in flow.
const (
	CallbackParam = "callbackUrl"
	ErrorParam    = "error"
)

// ErrorCode identifies why a sign-in attempt or protected request was
// rejected. Codes travel in the sign-in URL and are translated for display.
type ErrorCode string

const (
	ErrorCredentialsSignin ErrorCode = "CredentialsSignin"
	ErrorSessionRequired   ErrorCode = "SessionRequired"
	ErrorAccessDenied      ErrorCode = "AccessDenied"
	ErrorConfiguration     ErrorCode = "Configuration"
	ErrorDefault           ErrorCode = "Default"
)

// ParseErrorCode normalizes a raw code. Unknown non-empty codes map to
// ErrorDefault; an empty value yields "".
func ParseErrorCode(raw string) ErrorCode {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	switch code := ErrorCode(raw); code {
	case ErrorCredentialsSignin, ErrorSessionRequired, ErrorAccessDenied, ErrorConfiguration:
		return code
	default:
		return ErrorDefault
	}
}

// MessageKey returns the localization key describing code.
func (code ErrorCode) MessageKey() string {
	switch code {
	case "":
		return ""
	case ErrorCredentialsSignin:
		return "auth.error.credentials_signin"
	case ErrorSessionRequired:
		return "auth.error.session_required"
	case ErrorAccessDenied:
		return "auth.error.access_denied"
	case ErrorConfiguration:
		return "auth.error.configuration"
	default:
		return "auth.error.default"
	}
}
