// Package fib decodes the Word 97-2003 File Information Block: the fixed
// and semi-fixed header at the start of the WordDocument stream.
package fib

import "errors"

var (
	ErrBadFib    = errors.New("fib: malformed File Information Block")
	ErrEncrypted = errors.New("fib: document is encrypted")
)
