package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrPanic converts a recovered panic value into a stack-carrying error.
func ErrPanic(r any) error {
	if r == nil {
		return nil
	}
	e := &CodeError{
		Code:   CodeInternal,
		Msg:    "panic recovered",
		Detail: fmt.Sprint(r),
	}
	return errors.WithStack(e)
}
