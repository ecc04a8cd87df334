package util

import (
	"fmt"

	"github.com/pkg/errors"
)

// PanicHandler handles panic and returns a error.
// If fn() does not panic, PanicHandler returns nil.
// Otherwise, PanicHandler returns an error object.
func PanicHandler(fn func()) (err error) {
	defer func() {
		if obj := recover(); obj != nil {
			var ok bool
			err, ok = obj.(error)
			if !ok {
				// convert the obj from unknown type to error type.
				err = errors.New(fmt.Sprint(obj))
			}
		}
	}()
	fn()
	return nil
}
