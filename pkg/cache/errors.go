package cache

import "fmt"

// InvariantError reports broken cache accounting.
type InvariantError struct {
	Detail string
	Got    int64
	Want   int64
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("cache invariant violated: %s (got %d, want %d)", e.Detail, e.Got, e.Want)
}
