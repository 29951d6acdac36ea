package ole2

import (
	"errors"
	"fmt"
	"unicode/utf16"
)

// Directory entry object types, per the STGTY enumeration.
const (
	objectUnknown     uint8 = 0x00
	objectStorage     uint8 = 0x01
	objectStream      uint8 = 0x02
	objectRootStorage uint8 = 0x05
)

// DirectoryEntry describes one node of the CFB directory tree: either a
// storage (a folder-like grouping node) or a stream (addressable byte
// content).
type DirectoryEntry struct {
	Name      string
	IsStorage bool
	size      uint64
	startSect uint32

	sid                          uint32
	leftSib, rightSib, childSib  uint32
	rawName                      []uint16
}

func (e *DirectoryEntry) Size() int64 { return int64(e.size) }

// maxNameBytes is the directory-entry name length cap: spec §3 requires a
// name's byte count to be even and no greater than 64 (32 UTF-16 code units
// including the trailing NUL).
const maxNameBytes = 64

func parseDirEntry(buf []byte, order headerByteOrder) (*DirectoryEntry, error) {
	nameLen := order.Uint16(buf[0x40:0x42])
	if nameLen%2 != 0 || nameLen > maxNameBytes {
		return nil, fmt.Errorf("ole2: directory name length %d: %w", nameLen, ErrBadHeader)
	}
	nchars := 0
	if nameLen >= 2 {
		nchars = int(nameLen/2) - 1
	}
	raw := make([]uint16, nchars)
	for i := 0; i < nchars; i++ {
		raw[i] = order.Uint16(buf[2*i : 2*i+2])
	}
	e := &DirectoryEntry{
		Name:      string(utf16.Decode(raw)),
		IsStorage: buf[0x42] == objectStorage || buf[0x42] == objectRootStorage,
		rawName:   raw,
		leftSib:   order.Uint32(buf[0x44:0x48]),
		rightSib:  order.Uint32(buf[0x48:0x4C]),
		childSib:  order.Uint32(buf[0x4C:0x50]),
		startSect: order.Uint32(buf[0x74:0x78]),
		size:      uint64(order.Uint32(buf[0x78:0x7C])),
	}
	return e, nil
}

// headerByteOrder is the subset of binary.ByteOrder used by directory
// parsing; defined separately so tests can exercise parseDirEntry without
// pulling in the full header type.
type headerByteOrder interface {
	Uint16([]byte) uint16
	Uint32([]byte) uint32
}

func (c *container) readDirectory() error {
	raw, err := c.ch.readChain(c.h.dirStart, -1)
	if err != nil {
		return fmt.Errorf("ole2: reading directory stream: %w", err)
	}
	count := len(raw) / dirEntrySize
	entries := make([]*DirectoryEntry, count)
	for i := 0; i < count; i++ {
		buf := raw[i*dirEntrySize : (i+1)*dirEntrySize]
		if buf[0x42] == objectUnknown {
			entries[i] = nil
			continue
		}
		e, err := parseDirEntry(buf, c.h.byteOrder)
		if err != nil {
			return fmt.Errorf("ole2: directory entry %d: %w", i, err)
		}
		e.sid = uint32(i)
		entries[i] = e
	}
	if len(entries) == 0 || entries[0] == nil || buf0Type(raw) != objectRootStorage {
		return fmt.Errorf("ole2: missing root storage entry: %w", ErrBadHeader)
	}
	c.entries = entries
	return nil
}

func buf0Type(raw []byte) uint8 {
	if len(raw) < dirEntrySize {
		return objectUnknown
	}
	return raw[0x42]
}

// utf16Less implements the directory sibling ordering rule: compare by
// UTF-16 code-unit length first, then by code-unit sequence. This differs
// from a naive byte-wise string comparison, which mis-orders names outside
// the ASCII range.
func utf16Less(a, b []uint16) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// findChild descends the sibling tree rooted at parent.childSib, following
// the ordering rule in utf16Less: go left when the target name sorts before
// the current node, right when it sorts after, and stop when it matches.
// This follows spec §4.3's comparison-driven descent rather than a full
// linear scan of every sibling. A visited-SID set bounds the descent so a
// cyclic or self-referencing sibling pointer is rejected with ErrBadChain
// instead of looping forever.
func (c *container) findChild(parent *DirectoryEntry, name string) (*DirectoryEntry, error) {
	target := utf16.Encode([]rune(name))
	sid := parent.childSib
	visited := make(map[uint32]bool)
	for sid != noStream {
		if sid >= uint32(len(c.entries)) {
			return nil, fmt.Errorf("ole2: sibling SID %d out of range: %w", sid, ErrBadChain)
		}
		if visited[sid] {
			return nil, fmt.Errorf("ole2: cyclic directory sibling at SID %d: %w", sid, ErrBadChain)
		}
		visited[sid] = true
		e := c.entries[sid]
		if e == nil {
			return nil, fmt.Errorf("ole2: sibling SID %d is an unused directory slot: %w", sid, ErrBadChain)
		}
		switch {
		case utf16Less(target, e.rawName):
			sid = e.leftSib
		case utf16Less(e.rawName, target):
			sid = e.rightSib
		default:
			return e, nil
		}
	}
	return nil, nil
}

// errWalkStopped is an internal signal meaning fn asked to stop early; it is
// never returned to a caller of walk.
var errWalkStopped = errors.New("ole2: walk stopped")

// walk performs an in-order traversal of the red-black sibling tree rooted
// at sid, calling fn for every entry reached. It does not assume the tree is
// balanced or even correctly colored; it is treated as a plain binary search
// tree over the comparison in utf16Less. Recursion is bounded by a
// visited-SID set: a self-referencing or cyclic sibling pointer is rejected
// with ErrBadChain instead of recursing without end.
func (c *container) walk(sid uint32, fn func(*DirectoryEntry) bool) error {
	err := c.walkVisited(sid, make(map[uint32]bool), fn)
	if errors.Is(err, errWalkStopped) {
		return nil
	}
	return err
}

func (c *container) walkVisited(sid uint32, visited map[uint32]bool, fn func(*DirectoryEntry) bool) error {
	if sid == noStream {
		return nil
	}
	if sid >= uint32(len(c.entries)) {
		return fmt.Errorf("ole2: sibling SID %d out of range: %w", sid, ErrBadChain)
	}
	if visited[sid] {
		return fmt.Errorf("ole2: cyclic directory sibling at SID %d: %w", sid, ErrBadChain)
	}
	visited[sid] = true
	e := c.entries[sid]
	if e == nil {
		return fmt.Errorf("ole2: sibling SID %d is an unused directory slot: %w", sid, ErrBadChain)
	}
	if err := c.walkVisited(e.leftSib, visited, fn); err != nil {
		return err
	}
	if !fn(e) {
		return errWalkStopped
	}
	return c.walkVisited(e.rightSib, visited, fn)
}

// children returns the direct children of a storage entry (including the
// root), in sibling-tree order.
func (c *container) children(e *DirectoryEntry) ([]*DirectoryEntry, error) {
	var out []*DirectoryEntry
	err := c.walk(e.childSib, func(child *DirectoryEntry) bool {
		out = append(out, child)
		return true
	})
	return out, err
}

func (c *container) root() *DirectoryEntry {
	return c.entries[0]
}
