package msdoc

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ole2doc/msdoc/clx"
	"github.com/ole2doc/msdoc/codepage"
	"github.com/ole2doc/msdoc/fib"
	"github.com/ole2doc/msdoc/ole2"
)

// Document is an opened Word binary document, ready for text extraction.
type Document struct {
	ole2       *ole2.Reader
	fib        *fib.FIB
	clx        *clx.Clx
	wordDoc    []byte
	closer     io.Closer
	transcoder codepage.Transcoder
	codepageID uint16
}

// Open parses a CFB container already available through ra (for example,
// an *os.File or a bytes.Reader) as a Word binary document. Bytes outside
// the fixed compressed-text special table (codepage.SpecialChar) are
// decoded as a direct byte-to-codepoint passthrough; use OpenWithTranscoder
// to route them through a codepage.Transcoder instead.
func Open(ra io.ReaderAt) (*Document, error) {
	r, err := ole2.Open(ra)
	if err != nil {
		return nil, err
	}
	return openFromContainer(r, nil, nil, 0)
}

// OpenWithTranscoder is Open, but decodes any compressed-text byte outside
// the fixed special table through t, keyed by the document's numeric
// Windows code page (see codepage.Default for the bundled implementation).
func OpenWithTranscoder(ra io.ReaderAt, codepageID uint16, t codepage.Transcoder) (*Document, error) {
	r, err := ole2.Open(ra)
	if err != nil {
		return nil, err
	}
	return openFromContainer(r, nil, t, codepageID)
}

// OpenFile opens path and parses it as a Word binary document, taking
// ownership of the underlying file so Document.Close releases it.
func OpenFile(path string) (*Document, error) {
	return openFile(path, nil, 0)
}

// OpenFileWithTranscoder is OpenFile, but decodes any compressed-text byte
// outside the fixed special table through t, keyed by codepageID.
func OpenFileWithTranscoder(path string, codepageID uint16, t codepage.Transcoder) (*Document, error) {
	return openFile(path, t, codepageID)
}

func openFile(path string, t codepage.Transcoder, codepageID uint16) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("msdoc: opening %s: %w", path, err)
	}
	r, err := ole2.Open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	d, err := openFromContainer(r, f, t, codepageID)
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

func openFromContainer(r *ole2.Reader, closer io.Closer, t codepage.Transcoder, codepageID uint16) (*Document, error) {
	wordDocEntry, err := r.Find("WordDocument")
	if err != nil {
		return nil, fmt.Errorf("msdoc: locating WordDocument stream: %w", err)
	}
	wordDoc, err := r.Stream(wordDocEntry)
	if err != nil {
		return nil, fmt.Errorf("msdoc: reading WordDocument stream: %w", err)
	}

	f, err := fib.Parse(wordDoc)
	if err != nil {
		return nil, err
	}
	if f.IsEncrypted() {
		return nil, fib.ErrEncrypted
	}

	tableEntry, err := r.Find(f.TableStreamName())
	if err != nil {
		return nil, fmt.Errorf("msdoc: locating %s stream: %w", f.TableStreamName(), err)
	}
	tableStream, err := r.Stream(tableEntry)
	if err != nil {
		return nil, fmt.Errorf("msdoc: reading %s stream: %w", f.TableStreamName(), err)
	}

	if int(f.FcClx)+int(f.LcbClx) > len(tableStream) || f.LcbClx == 0 {
		return nil, fmt.Errorf("msdoc: fcClx/lcbClx out of range for table stream: %w", fib.ErrBadFib)
	}
	clxData := tableStream[f.FcClx : f.FcClx+f.LcbClx]
	c, err := clx.Parse(clxData)
	if err != nil {
		return nil, err
	}

	return &Document{
		ole2:       r,
		fib:        f,
		clx:        c,
		wordDoc:    wordDoc,
		closer:     closer,
		transcoder: t,
		codepageID: codepageID,
	}, nil
}

// Close releases resources opened by OpenFile. It is a no-op for documents
// opened with Open, which does not take ownership of the source.
func (d *Document) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// FIB exposes the parsed File Information Block, for callers that need
// document-level metadata (character counts, version) beyond plain text.
func (d *Document) FIB() *fib.FIB { return d.fib }

// ExtractText walks the document's pieces in character-position order,
// calling sink.Rune for every character. Returning ErrStop from sink halts
// extraction and is not itself returned; any other error is.
func (d *Document) ExtractText(sink Sink) error {
	for i := 0; i < d.clx.Pcd.Count(); i++ {
		pcd, startCP, endCP := d.clx.Pcd.Piece(i)
		if err := d.emitPiece(pcd, endCP-startCP, sink); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Text returns the document's full plain text as a single string.
func (d *Document) Text() (string, error) {
	s := &stringSink{}
	if err := d.ExtractText(s); err != nil {
		return "", err
	}
	return s.b.String(), nil
}
