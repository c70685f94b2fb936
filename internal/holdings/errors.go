package holdings

import "fmt"

// FetchError is fatal to a sweep run: no transfer work starts without a
// balance snapshot.
type FetchError struct {
	Wallet     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch holdings for %s (status %d): %v", e.Wallet, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch holdings for %s: %v", e.Wallet, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
