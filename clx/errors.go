// Package clx decodes the Clx structure (skipped Prc formatting records
// plus the piece-table container) found in a Word binary document's table stream,
// and the PlcPcd piece table within it that maps character positions to
// their storage location.
package clx

import "errors"

var ErrBadClx = errors.New("clx: malformed Clx structure")
