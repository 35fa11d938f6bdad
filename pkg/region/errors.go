// This file may be distributed under the terms of the GNU GPLv3 license.

package region

import "fmt"

// Reason classifies why a region mutation was declined.
type Reason string

const (
	ReasonInvalidGeometry Reason = "invalid_geometry"
	ReasonDuplicateID     Reason = "duplicate_id"
	ReasonUnknownID       Reason = "unknown_id"
	ReasonShrinkForbidden Reason = "shrink_while_printing"
	ReasonDeleteForbidden Reason = "delete_while_printing"
)

// MutationError is returned when an add, replace or remove is declined.
// Mutations never panic or halt filtering; the caller receives the reason
// code and reports it back over the control interface.
type MutationError struct {
	Reason Reason
	ID     string
	Detail string
}

func (e *MutationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("region %s: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("region %s: %s: %s", e.ID, e.Reason, e.Detail)
}

// Is matches MutationError values by reason code.
func (e *MutationError) Is(target error) bool {
	t, ok := target.(*MutationError)
	return ok && t.Reason == e.Reason
}
