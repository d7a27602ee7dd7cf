package listing

import "errors"

// Data source failures. Fetch errors wrap one of these.
var (
	ErrNetwork = errors.New("listing source unreachable")
	ErrDecode  = errors.New("listing batch malformed")
)
