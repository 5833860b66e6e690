package shared

import "fmt"

// ErrUniqueViolation is returned by stores when an insert collides with a unique
// constraint. Constraint names the violated index when the store reports it.
type ErrUniqueViolation struct {
	Constraint string
}

func (e ErrUniqueViolation) Error() string {
	if e.Constraint == "" {
		return "unique constraint violated"
	}
	return "unique constraint violated: " + e.Constraint
}

// Is implements the errors.Is interface for ErrUniqueViolation
func (e ErrUniqueViolation) Is(target error) bool {
	t, ok := target.(ErrUniqueViolation)
	if !ok {
		return false
	}
	// An empty target constraint matches any violation
	if t.Constraint == "" {
		return true
	}
	return e.Constraint == t.Constraint
}

// ErrRecordNotFound is returned by stores when an update targets a missing row.
type ErrRecordNotFound struct {
	Entity string
	ID     string
}

func (e ErrRecordNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.Entity != "" && t.Entity != e.Entity {
		return false
	}
	if t.ID != "" && t.ID != e.ID {
		return false
	}
	return true
}
