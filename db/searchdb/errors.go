package searchdb

const (
	OpOpen   = "open"
	OpIndex  = "index"
	OpDelete = "delete"
	OpSearch = "search"
	OpDecode = "decode"
	OpCount  = "count"
)

// Error wraps an index failure with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "searchdb " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
