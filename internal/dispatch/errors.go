package dispatch

import "fmt"

// FetchFailure reports a failed intent. Err is the collaborator's error.
type FetchFailure struct {
	Op  string
	Key string
	Err error
}

func (f *FetchFailure) Error() string {
	if f.Key != "" {
		return fmt.Sprintf("%s %q: %v", f.Op, f.Key, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *FetchFailure) Unwrap() error { return f.Err }
