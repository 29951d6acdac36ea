// Package ole2 reads Microsoft Compound File Binary (CFB/OLE2) containers:
// the sector-chained storage format underlying legacy Word, Excel and
// PowerPoint binary files.
package ole2

import "errors"

// Sentinel errors returned by this package. Callers should use errors.Is to
// test for these rather than comparing strings.
var (
	ErrIo           = errors.New("ole2: underlying byte source error")
	ErrBadSignature = errors.New("ole2: bad signature")
	ErrBadEndian    = errors.New("ole2: unsupported byte order")
	ErrBadHeader    = errors.New("ole2: malformed header")
	ErrBadChain     = errors.New("ole2: broken or cyclic sector chain")
	ErrNotFound     = errors.New("ole2: entry not found")
	ErrStreamRead   = errors.New("ole2: error materializing stream")
)
