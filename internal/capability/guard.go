// Package capability implements the optional-capability pattern: every
// operation backed by an external integration declares its required
// configuration and, when something is absent, reports a structured
// "skipped" outcome instead of failing the caller. Reasons name keys only,
// never values.
package capability

import (
	"fmt"
	"strings"
)

// Requirement names one configuration key and carries its resolved value.
type Requirement struct {
	Name  string
	Value string
}

// Skipped reports that an integration was not attempted. It is a distinct
// outcome from failure: callers branch on "capability absent, proceed
// without it" versus "capability present but the call failed".
type Skipped struct {
	Reason string
}

// SkippedError lets deep callees surface a Skipped through an ordinary error
// return. Callers recover the outcome with errors.As.
type SkippedError struct {
	Reason string
}

func (e *SkippedError) Error() string {
	return "capability missing: " + e.Reason
}

// Err converts a Skipped into an error suitable for returning up the stack.
func (s *Skipped) Err() *SkippedError {
	if s == nil {
		return nil
	}
	return &SkippedError{Reason: s.Reason}
}

// Check returns nil when every requirement has a non-blank value, otherwise
// a Skipped whose reason names the first missing key.
func Check(reqs ...Requirement) *Skipped {
	for _, req := range reqs {
		if strings.TrimSpace(req.Value) == "" {
			return &Skipped{Reason: fmt.Sprintf("%s is not configured", req.Name)}
		}
	}
	return nil
}
