package graphexport

import "errors"

// ErrExportTooLarge is returned when a store's node+edge count exceeds
// Options.FailAt. The caller may narrow what it exports and retry.
var ErrExportTooLarge = errors.New("graphexport: export too large")
