// Package msdoc reads the text content of legacy Microsoft Word binary
// documents (Word 97-2003, the ".doc" format): a Compound File Binary
// container around a WordDocument stream, a File Information Block, and a
// piece table that locates the document's characters.
//
// msdoc does not interpret formatting, styles, embedded objects, macros,
// or revision marks, and it does not write documents; it only locates and
// decodes the plain text.
package msdoc

import "errors"

// ErrStop is returned by a Sink to stop text extraction early. ExtractText
// treats it as a normal, successful stop rather than propagating it to the
// caller.
var ErrStop = errors.New("msdoc: stop extraction")
