package algorithms

import "errors"

// ErrDepthExceeded is returned when a traversal needs to enumerate beyond
// AbsoluteMaxPathLength, or when AllSimplePaths/CallChain is invoked
// without an explicit, positive bound. The depth bound on path
// enumeration is mandatory, never an implicit default.
var ErrDepthExceeded = errors.New("algorithms: depth exceeded")

// ErrInvalidArgument is returned for a malformed parameter.
var ErrInvalidArgument = errors.New("algorithms: invalid argument")

// AbsoluteMaxPathLength is the hard ceiling all-simple-path enumeration
// refuses to exceed even if the caller asks for more. Path counts grow
// exponentially with length in the worst case.
const AbsoluteMaxPathLength = 64
