package msdoc

import "strings"

// Sink consumes runes as ExtractText walks the piece table in character
// order. Returning ErrStop halts extraction without it being reported as a
// failure; any other error aborts extraction and is returned to the caller
// of ExtractText.
type Sink interface {
	Rune(r rune) error
}

// stringSink accumulates every rune it receives; it backs Document.Text.
type stringSink struct {
	b strings.Builder
}

func (s *stringSink) Rune(r rune) error {
	s.b.WriteRune(r)
	return nil
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(r rune) error

func (f SinkFunc) Rune(r rune) error { return f(r) }
