package index

import "fmt"

// PartialDeindexError reports that deindexing left the two indexes divergent.
// Index names which side still contains matching entries; deindex is
// idempotent, so operators can re-run it with the same filter.
type PartialDeindexError struct {
	Index string
	Err   error
}

func (e *PartialDeindexError) Error() string {
	return fmt.Sprintf("deindex incomplete: %s index still contains matching entries: %v", e.Index, e.Err)
}

func (e *PartialDeindexError) Unwrap() error {
	return e.Err
}
