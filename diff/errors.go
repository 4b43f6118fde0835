package diff

import "fmt"

// DuplicateRegistrationError is returned when two declared entities share an
// identity. The engine refuses to pick a winner; it is raised before any
// database work.
type DuplicateRegistrationError struct {
	Identity string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("duplicate entity registered: %s", e.Identity)
}

// UnreachableError reports an internal invariant violation, typically the
// set-difference isolation finding zero or more than one changed entity.
type UnreachableError struct {
	Context string
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("unreachable state: %s", e.Context)
}
