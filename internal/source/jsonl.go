package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// maxLineSize bounds one exported node. Nodes with large block content
// exceed bufio's 64KiB default.
const maxLineSize = 16 << 20

// jsonlNode is one line of a workspace export.
type jsonlNode struct {
	Path       string         `json:"path"`
	Identifier string         `json:"identifier,omitempty"`
	Properties map[string]any `json:"properties"`
}

// JSONL reads workspace exports stored as <dir>/<workspace>.jsonl.
type JSONL struct {
	dir string
}

// NewJSONL returns a source reading exports from dir.
func NewJSONL(dir string) *JSONL {
	return &JSONL{dir: dir}
}

// WorkspaceFile returns the export file of a workspace.
func WorkspaceFile(dir, workspace string) string {
	return filepath.Join(dir, workspace+".jsonl")
}

// Nodes reads the export of workspace. A missing export yields no nodes.
// Lines that are not valid JSON are skipped.
func (s *JSONL) Nodes(ctx context.Context, workspace, mixin string) ([]types.Node, error) {
	path := WorkspaceFile(s.dir, workspace)
	records, err := readJSONL(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var nodes []types.Node
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var n jsonlNode
		dec := json.NewDecoder(bytes.NewReader(rec))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			continue
		}
		if n.Identifier != "" {
			if _, err := uuid.Parse(n.Identifier); err != nil {
				return nil, fmt.Errorf("%s: record %d: invalid identifier %q: %w", path, i+1, n.Identifier, err)
			}
		}
		props := make(map[string]any, len(n.Properties)+1)
		for name, v := range n.Properties {
			props[name] = types.NormalizeJSON(v)
		}
		withIdentifier(props, n.Identifier)
		if !hasMixin(props, mixin) {
			continue
		}
		nodes = append(nodes, types.NewNode(n.Path, props))
	}
	return nodes, nil
}

// Close is a no-op.
func (s *JSONL) Close() error { return nil }

// WriteJSONL atomically writes nodes as the export of workspace in dir.
// Properties holding time.Time are written in RFC 3339.
func WriteJSONL(dir, workspace string, nodes []types.Node) error {
	records := make([]json.RawMessage, 0, len(nodes))
	for _, node := range nodes {
		props := make(map[string]any, len(node.Properties()))
		for _, p := range node.Properties() {
			props[p.Name] = p.Value
		}
		identifier, _ := props[propUUID].(string)
		b, err := json.Marshal(jsonlNode{Path: node.Path(), Identifier: identifier, Properties: props})
		if err != nil {
			return fmt.Errorf("encoding node %s: %w", node.Path(), err)
		}
		records = append(records, b)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	return writeJSONL(WorkspaceFile(dir, workspace), records)
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
