package enum

// ErrorKind is the fixed taxonomy used for retry decisions and user-facing
// diagnostics. Classification happens once, close to where the raw error
// surfaces; everything downstream switches on the kind, never on error text.
type ErrorKind string

const (
	ErrorKindAuthentication ErrorKind = "authentication"
	ErrorKindConnection     ErrorKind = "connection"
	ErrorKindTimeout        ErrorKind = "timeout"
	ErrorKindParse          ErrorKind = "parse"
	ErrorKindUnknown        ErrorKind = "unknown"
)

func (t ErrorKind) String() string {
	return string(t)
}

// Retryable reports whether a failed attempt with this kind is worth
// repeating. Credentials and malformed messages do not fix themselves.
func (t ErrorKind) Retryable() bool {
	return t == ErrorKindConnection || t == ErrorKindTimeout
}
