package shader

import (
	"errors"
	"fmt"

	"render-scaffold/gpu"
)

var (
	ErrCompile = errors.New("shader: compile failed")
	ErrLink    = errors.New("shader: link failed")
)

// CompileError is returned when the backend rejects a stage. Source is the
// text the caller submitted, without any backend preamble.
type CompileError struct {
	Kind   gpu.StageKind
	Source string
	Log    string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader: %s stage failed to compile: %s", e.Kind, e.Log)
}

func (e *CompileError) Unwrap() error { return ErrCompile }

type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("shader: program failed to link: %s", e.Log)
}

func (e *LinkError) Unwrap() error { return ErrLink }
