package value

// errVal backs the optional first-class Error value kind.
type errVal struct {
	Message string
	Cause   error
}

// NewError wraps a Go error (or a bare message, if err is nil) as an Error
// value so that Tardi programs can inspect it as ordinary data.
func NewError(message string, err error) Value {
	return Value{kind: Error, err: &errVal{Message: message, Cause: err}}
}

func (v Value) ErrorMessage() string { return v.err.Message }

func (v Value) ErrorCause() error { return v.err.Cause }
