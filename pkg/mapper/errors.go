package mapper

import "errors"

// ErrInvalidArgument is returned when Map is given an IR that cannot be
// mapped at all (a nil file, or a blank path).
var ErrInvalidArgument = errors.New("mapper: invalid argument")
