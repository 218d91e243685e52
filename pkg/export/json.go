package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/SebastianScherer88/graphit/pkg/callgraph"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/layout"
)

// GraphDocument returns the file name of the JSON document for rootID.
func GraphDocument(rootID string) string {
	return "graphit_" + rootID + "_graph.json"
}

// WriteJSON encodes a layout as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(l *layout.Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return errors.Wrap(errors.ErrCodeFileAccess, err, "encode graph %s", l.RootID)
	}
	return nil
}

// ExportJSON writes the document for l into dir and returns its path.
func ExportJSON(dir string, l *layout.Layout) (string, error) {
	path := filepath.Join(dir, GraphDocument(l.RootID))
	return path, writeFile(path, func(w io.Writer) error { return WriteJSON(l, w) })
}

// ReadJSON decodes a graph document from r.
//
// ReadJSON returns an INVALID_FORMAT error if the JSON is malformed, a node
// address is not dotted decimal, two nodes share an address, or nodes are
// not in address order. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*layout.Layout, error) {
	var l layout.Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph document")
	}
	if len(l.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "graph document has no nodes")
	}
	for i := 1; i < len(l.Nodes); i++ {
		prev, cur := l.Nodes[i-1].Address, l.Nodes[i].Address
		switch callgraph.Compare(prev, cur) {
		case 0:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "duplicate address %q", cur.String())
		case 1:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "address %q out of order after %q", cur.String(), prev.String())
		}
	}
	return &l, nil
}

// ImportJSON reads the graph document at path.
func ImportJSON(path string) (*layout.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileAccess, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
