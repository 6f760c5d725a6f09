package renderer

import (
	"errors"
	"fmt"
)

var ErrUnknownRenderer = errors.New("renderer: unknown renderer")

type UnknownRendererError struct {
	Selector Selector
}

func (e *UnknownRendererError) Error() string {
	return fmt.Sprintf("renderer: no renderer registered for %s", e.Selector)
}

func (e *UnknownRendererError) Unwrap() error { return ErrUnknownRenderer }
