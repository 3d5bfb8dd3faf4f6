package auth

// ErrorKind classifies authentication failures.
type ErrorKind string

const (
	KindMissingToken       ErrorKind = "MISSING_TOKEN"
	KindMalformedHeader    ErrorKind = "MALFORMED_HEADER"
	KindInvalidSignature   ErrorKind = "INVALID_SIGNATURE"
	KindExpired            ErrorKind = "TOKEN_EXPIRED"
	KindIncompleteClaims   ErrorKind = "INCOMPLETE_CLAIMS"
	KindMalformedSubject   ErrorKind = "MALFORMED_SUBJECT"
	KindInvalidCredentials ErrorKind = "INVALID_CREDENTIALS"
	KindRevoked            ErrorKind = "TOKEN_REVOKED"
)

// AuthError is returned by token verification and login.
// Two AuthErrors match under errors.Is when their kinds are equal.
type AuthError struct {
	Kind ErrorKind
	Err  error
}

var (
	ErrMissingToken       = &AuthError{Kind: KindMissingToken}
	ErrMalformedHeader    = &AuthError{Kind: KindMalformedHeader}
	ErrInvalidSignature   = &AuthError{Kind: KindInvalidSignature}
	ErrExpired            = &AuthError{Kind: KindExpired}
	ErrIncompleteClaims   = &AuthError{Kind: KindIncompleteClaims}
	ErrMalformedSubject   = &AuthError{Kind: KindMalformedSubject}
	ErrInvalidCredentials = &AuthError{Kind: KindInvalidCredentials}
	ErrRevoked            = &AuthError{Kind: KindRevoked}
)

func (e *AuthError) Error() string {
	msg := e.Kind.Message()
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

func wrapErr(kind ErrorKind, err error) error {
	return &AuthError{Kind: kind, Err: err}
}

// Message returns the client-facing text for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case KindMissingToken:
		return "missing authorization header"
	case KindMalformedHeader:
		return "invalid authorization header"
	case KindInvalidSignature:
		return "invalid token"
	case KindExpired:
		return "token expired"
	case KindIncompleteClaims, KindMalformedSubject:
		return "could not validate token"
	case KindInvalidCredentials:
		return "invalid email or password"
	case KindRevoked:
		return "token revoked"
	default:
		return "unauthorized"
	}
}
