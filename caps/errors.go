package caps

import (
	"errors"
	"fmt"
)

var ErrCapabilityMissing = errors.New("caps: required capability missing")

// CapabilityMissingError names the first required extension that could not
// be acquired.
type CapabilityMissingError struct {
	Name string
}

func (e *CapabilityMissingError) Error() string {
	return fmt.Sprintf("caps: missing required GPU extension %q", e.Name)
}

func (e *CapabilityMissingError) Unwrap() error { return ErrCapabilityMissing }
