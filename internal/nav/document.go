package nav

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

const navKey = "nav"

// Document is a parsed site configuration (mkdocs.yml). Only the nav key is ever
// modified; every other key keeps its order, comments and tags.
type Document struct {
	root *yaml.Node // DocumentNode
	raw  []byte
}

// LoadDocument reads and parses the site configuration at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategorySite, "failed to read site configuration").
			WithContext("path", path).
			Fatal().
			Build()
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategorySite, "failed to parse site configuration").
			WithContext("path", path).
			Fatal().
			Build()
	}
	return doc, nil
}

// ParseDocument parses site configuration bytes.
func ParseDocument(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		// Empty file.
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}
	return &Document{root: &root, raw: data}, nil
}

func (d *Document) mapping() *yaml.Node {
	return d.root.Content[0]
}

// navValue returns the value node of the nav key, or nil when absent.
func (d *Document) navValue() *yaml.Node {
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == navKey {
			return m.Content[i+1]
		}
	}
	return nil
}

// Nav returns the navigation entries. A missing or null nav reads as empty.
func (d *Document) Nav() ([]Node, error) {
	v := d.navValue()
	if v == nil || (v.Kind == yaml.ScalarNode && v.ShortTag() == "!!null") {
		return []Node{}, nil
	}
	if v.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: found %s", ErrNavNotSequence, kindName(v.Kind))
	}
	return parseNodes(v), nil
}

// SetNav replaces the nav value, appending the key at the end when absent.
func (d *Document) SetNav(nodes []Node) {
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == navKey {
			m.Content[i+1] = encodeNodes(nodes, m.Content[i+1])
			return
		}
	}
	m.Content = append(m.Content, stringNode(navKey), encodeNodes(nodes, nil))
}

// Encode serializes the document.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Changed reports whether encoding the document differs from the bytes it was parsed from.
func (d *Document) Changed() (bool, error) {
	out, err := d.Encode()
	if err != nil {
		return false, err
	}
	return !bytes.Equal(out, d.raw), nil
}

// Save writes the document to path through a temporary file in the same
// directory renamed into place, keeping the existing file mode.
func (d *Document) Save(path string) error {
	out, err := d.Encode()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategorySite, "failed to encode site configuration").
			WithContext("path", path).
			Build()
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategorySite, "failed to create temporary site configuration").
			WithContext("path", path).
			Build()
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(out); err != nil {
		_ = tmp.Close()
		cleanup()
		return ferrors.WrapError(err, ferrors.CategorySite, "failed to write temporary site configuration").
			WithContext("path", tmpPath).
			Build()
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return ferrors.WrapError(err, ferrors.CategorySite, "failed to flush temporary site configuration").
			WithContext("path", tmpPath).
			Build()
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return ferrors.WrapError(err, ferrors.CategorySite, "failed to close temporary site configuration").
			WithContext("path", tmpPath).
			Build()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		cleanup()
		return ferrors.WrapError(err, ferrors.CategorySite, "failed to set site configuration mode").
			WithContext("path", tmpPath).
			Build()
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return ferrors.WrapError(err, ferrors.CategorySite, "failed to replace site configuration").
			WithContext("path", path).
			Build()
	}

	d.raw = out
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
