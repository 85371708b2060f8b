package encoder

import (
	"fmt"

	"six09asm/errs"
)

// EncodingError provides detailed context for encoding failures: the
// failing instruction's source location, its raw text, and the
// underlying error. Mirrors the shape of the teacher codebase's own
// EncodingError, adapted to this project's severity-ordered errs.Error.
type EncodingError struct {
	Instruction *Instruction
	Message     string
	Wrapped     error
}

func (e *EncodingError) Error() string {
	if e.Instruction == nil {
		if e.Wrapped != nil {
			return fmt.Sprintf("encoding error: %s: %v", e.Message, e.Wrapped)
		}
		return fmt.Sprintf("encoding error: %s", e.Message)
	}
	loc := e.Instruction.Pos.String()
	var msg string
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %s: %v", loc, e.Message, e.Wrapped)
	} else {
		msg = fmt.Sprintf("%s: %s", loc, e.Message)
	}
	if e.Instruction.RawLine != "" {
		msg = fmt.Sprintf("%s\n  source: %s", msg, e.Instruction.RawLine)
	}
	return msg
}

func (e *EncodingError) Unwrap() error { return e.Wrapped }

// NewEncodingError builds an EncodingError with instruction context.
func NewEncodingError(inst *Instruction, message string) *EncodingError {
	return &EncodingError{Instruction: inst, Message: message}
}

// WrapEncodingError attaches instruction context to err, without
// double-wrapping an existing EncodingError or errs.Error.
func WrapEncodingError(inst *Instruction, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*EncodingError); ok {
		return err
	}
	if _, ok := err.(*errs.Error); ok {
		return err
	}
	return &EncodingError{Instruction: inst, Message: "failed to encode instruction", Wrapped: err}
}
