package gamedto

// Error codes surfaced over the wire.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeIllegalState    = "ILLEGAL_STATE"
	CodeInvalidMove     = "INVALID_MOVE"
	CodeInternal        = "INTERNAL"
)

type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "game service error"
}
