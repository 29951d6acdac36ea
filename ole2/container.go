package ole2

import (
	"fmt"
	"io"
	"strings"
)

// container is the L3 assembly of header, sector engine and directory tree.
// Reader is its exported façade.
type container struct {
	src     *source
	h       *header
	ch      *chain
	entries []*DirectoryEntry
}

// Reader provides random access to the streams of a CFB container.
type Reader struct {
	c *container
}

// Open parses the CFB container read through ra. ra must support random
// access; if the original data source does not (for example, a network
// stream), call Spool first.
func Open(ra io.ReaderAt) (*Reader, error) {
	src := &source{r: ra}
	h, err := readHeader(src)
	if err != nil {
		return nil, err
	}
	c := &container{src: src, h: h, ch: newChain(src, h)}
	if err := c.readDirectory(); err != nil {
		return nil, err
	}
	if err := c.loadMiniStream(); err != nil {
		return nil, err
	}
	return &Reader{c: c}, nil
}

func (c *container) loadMiniStream() error {
	root := c.root()
	if root.startSect == endOfChain || root.size == 0 {
		return nil
	}
	buf, err := c.ch.readChain(root.startSect, int64(root.size))
	if err != nil {
		return fmt.Errorf("ole2: reading mini stream: %w", err)
	}
	c.ch.miniStream = buf
	return nil
}

// Entries returns every directory entry in the container, in directory
// array (SID) order. Index 0 is always the root storage entry. Unused
// directory slots are skipped.
func (r *Reader) Entries() []*DirectoryEntry {
	out := make([]*DirectoryEntry, 0, len(r.c.entries))
	for _, e := range r.c.entries {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Find locates a stream or storage entry by slash-separated path, e.g.
// "WordDocument" or "ObjectPool/Storage1/Contents". Path components are
// matched against sibling trees starting from the root.
func (r *Reader) Find(path string) (*DirectoryEntry, error) {
	parts := strings.Split(path, "/")
	cur := r.c.root()
	for _, part := range parts {
		if part == "" {
			continue
		}
		next, err := r.c.findChild(cur, part)
		if err != nil {
			return nil, fmt.Errorf("ole2: %q: %w", path, err)
		}
		if next == nil {
			return nil, fmt.Errorf("ole2: %q: %w", path, ErrNotFound)
		}
		cur = next
	}
	return cur, nil
}

// Stream returns the full byte content of a stream entry, choosing the
// mini-stream or the main FAT chain according to its size relative to the
// container's mini-sector cutoff. The root entry's own data (the
// mini-stream backing store) is always read through the main FAT chain,
// never through itself.
func (r *Reader) Stream(e *DirectoryEntry) ([]byte, error) {
	if e.IsStorage {
		return nil, fmt.Errorf("ole2: %q is a storage, not a stream: %w", e.Name, ErrNotFound)
	}
	c := r.c
	var (
		data []byte
		err  error
	)
	if e.sid != 0 && uint64(e.size) < uint64(c.h.miniSectorCutoff) {
		data, err = c.ch.readMiniChain(e.startSect, int64(e.size))
	} else {
		data, err = c.ch.readChain(e.startSect, int64(e.size))
	}
	if err != nil {
		return nil, fmt.Errorf("ole2: reading stream %q: %w: %w", e.Name, ErrStreamRead, err)
	}
	return data, nil
}
