package cas

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// The number of metadata fields before the tab in an encoded tree line
const treeMetaFields = 3

// EncodeTree writes entries in the line-based tree encoding:
//
//	<mode> <type> <id>\t<name>
//
// Entries are written in byte order regardless of input order, so the same
// entry set always produces the same bytes and therefore the same id.
func EncodeTree(w io.Writer, entries []TreeEntry) error {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)

	tree := NewTree("", sorted)

	for _, entry := range tree.Entries() {
		if _, err := fmt.Fprintf(w, "%s %s %s\t%s\n", entry.Kind.Mode(), entry.Kind.ObjectType(), entry.ID, entry.Name); err != nil {
			return wrapErrorWithContext("encode_tree", entry.Name, err)
		}
	}

	return nil
}

// DecodeTree parses an encoded tree object.
func DecodeTree(id ObjectID, data []byte) (*Tree, error) {
	entries := make([]TreeEntry, 0, bytes.Count(data, []byte("\n")))

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		entry, err := ParseTreeEntry(line)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, wrapErrorWithContext("scan_tree", "failed to read tree data", err)
	}

	return NewTree(id, entries), nil
}

// ParseTreeEntry parses a single line of the tree encoding. The name sits
// after the tab so it may contain spaces.
func ParseTreeEntry(line string) (TreeEntry, error) {
	meta, name, found := strings.Cut(line, "\t")
	if !found || name == "" {
		return TreeEntry{}, wrapErrorWithContext("parse_tree_entry", line, ErrParseTree)
	}

	parts := strings.Fields(meta)
	if len(parts) != treeMetaFields {
		return TreeEntry{}, wrapErrorWithContext("parse_tree_entry", line, ErrParseTree)
	}

	kind, err := KindForMode(parts[0])
	if err != nil {
		return TreeEntry{}, err
	}

	if kind.ObjectType() != parts[1] {
		return TreeEntry{}, wrapErrorWithContext("parse_tree_entry", line, ErrParseTree)
	}

	return TreeEntry{
		Name: name,
		Kind: kind,
		ID:   ObjectID(parts[2]),
	}, nil
}
