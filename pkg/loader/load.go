// Package loader reads and writes tree documents and watches them for
// changes on disk.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treestack/pkg/model"
)

// Format identifies a document encoding.
type Format string

const (
	FormatJSON  Format = "json"  // model.Document as JSON
	FormatYAML  Format = "yaml"  // model.Document as YAML
	FormatJSONL Format = "jsonl" // one model.Record per line
)

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unsupported document extension %q", filepath.Ext(path))
	}
}

// LoadError wraps errors with the phase and file they occurred in.
type LoadError struct {
	Phase string // "detect", "read", "parse", "link"
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Result is a loaded document together with its linked forest.
type Result struct {
	Path     string
	Format   Format
	Document model.Document
	Nodes    []model.Node
	Warnings []string
}

// Load reads, parses and links the document at path.
func Load(path string) (*Result, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, &LoadError{Phase: "detect", Path: path, Cause: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Phase: "read", Path: path, Cause: err}
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, &LoadError{Phase: "parse", Path: path, Cause: err}
	}
	nodes, warnings, err := doc.Forest()
	if err != nil {
		return nil, &LoadError{Phase: "link", Path: path, Cause: err}
	}
	for _, w := range warnings {
		log.Printf("warning: %s: %s", path, w)
	}
	return &Result{
		Path:     path,
		Format:   format,
		Document: doc,
		Nodes:    nodes,
		Warnings: warnings,
	}, nil
}

// Parse decodes a document in the given format.
func Parse(data []byte, format Format) (model.Document, error) {
	var doc model.Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return doc, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return doc, err
		}
	case FormatJSONL:
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			var r model.Record
			if err := json.Unmarshal([]byte(text), &r); err != nil {
				return doc, fmt.Errorf("line %d: %w", line, err)
			}
			doc.Records = append(doc.Records, r)
		}
		if err := scanner.Err(); err != nil {
			return doc, err
		}
	default:
		return doc, fmt.Errorf("unknown format %q", format)
	}
	if doc.Version == 0 {
		doc.Version = model.DocumentVersion
	}
	return doc, nil
}

// LoadAll loads several documents concurrently. Results keep the order of
// paths; the first error cancels the rest.
func LoadAll(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := Load(path)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Merge concatenates the forests of several results. Keys must be unique
// across all of them.
func Merge(results []*Result) ([]model.Node, error) {
	owner := make(map[string]string)
	var merged []model.Node
	for _, r := range results {
		for _, rec := range model.ToRecords(r.Nodes) {
			if prev, dup := owner[rec.Key]; dup {
				return nil, fmt.Errorf("key %q defined in both %s and %s", rec.Key, prev, r.Path)
			}
			owner[rec.Key] = r.Path
		}
		merged = append(merged, r.Nodes...)
	}
	return merged, nil
}

// Encode serializes doc in the given format.
func Encode(doc model.Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSONL:
		var nodes []model.Node
		if len(doc.Nodes) > 0 {
			var err error
			if nodes, _, err = (model.Document{Nodes: doc.Nodes}).Forest(); err != nil {
				return nil, err
			}
		}
		var buf bytes.Buffer
		for _, r := range append(model.ToRecords(nodes), doc.Records...) {
			line, err := json.Marshal(r)
			if err != nil {
				return nil, err
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Save writes doc to path atomically, picking the format from the
// extension.
func Save(path string, doc model.Document) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	data, err := Encode(doc, format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
