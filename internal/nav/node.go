// Package nav reads, rewrites and regenerates the MkDocs navigation tree.
//
// The nav is modelled as a tagged variant: leaves map a title to a page path,
// branches map a title to child entries, and anything else (bare page paths,
// multi-key mappings, aliases) is carried as an opaque entry. Entries parsed
// from the site configuration keep their source YAML node, so anything the
// rebuild does not touch is written back exactly as authored.
package nav

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind discriminates navigation entries.
type Kind int

const (
	// KindOther is an entry that is neither a leaf nor a branch. It passes through untouched.
	KindOther Kind = iota
	// KindLeaf maps a display title to a page path.
	KindLeaf
	// KindBranch maps a section title to nested entries.
	KindBranch
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindBranch:
		return "branch"
	default:
		return "other"
	}
}

// Node is one navigation entry.
type Node struct {
	Kind     Kind
	Title    string
	Path     string // leaves only
	Children []Node // branches only

	raw *yaml.Node
}

// Leaf returns a page entry.
func Leaf(title, path string) Node {
	return Node{Kind: KindLeaf, Title: title, Path: path}
}

// Branch returns a section entry.
func Branch(title string, children []Node) Node {
	if children == nil {
		children = []Node{}
	}
	return Node{Kind: KindBranch, Title: title, Children: children}
}

// IsBranch reports whether n is a section titled title.
func (n Node) IsBranch(title string) bool {
	return n.Kind == KindBranch && n.Title == title
}

func parseNodes(seq *yaml.Node) []Node {
	nodes := make([]Node, 0, len(seq.Content))
	for _, item := range seq.Content {
		nodes = append(nodes, parseNode(item))
	}
	return nodes
}

func parseNode(item *yaml.Node) Node {
	if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
		return Node{Kind: KindOther, raw: item}
	}
	key, value := item.Content[0], item.Content[1]
	if key.Kind != yaml.ScalarNode {
		return Node{Kind: KindOther, raw: item}
	}
	switch value.Kind {
	case yaml.ScalarNode:
		return Node{Kind: KindLeaf, Title: key.Value, Path: value.Value, raw: item}
	case yaml.SequenceNode:
		return Node{Kind: KindBranch, Title: key.Value, Children: parseNodes(value), raw: item}
	default:
		return Node{Kind: KindOther, raw: item}
	}
}

func encodeNodes(nodes []Node, template *yaml.Node) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	if template != nil && template.Kind == yaml.SequenceNode {
		copied := *template
		seq = &copied
	}
	seq.Content = make([]*yaml.Node, 0, len(nodes))
	for _, n := range nodes {
		seq.Content = append(seq.Content, n.encode())
	}
	return seq
}

func (n Node) encode() *yaml.Node {
	switch n.Kind {
	case KindLeaf:
		if n.raw != nil {
			return n.raw
		}
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
			stringNode(n.Title), stringNode(n.Path),
		}}
	case KindBranch:
		// Branches are always rebuilt because their children may have changed;
		// the authored key and styles are reused when available.
		if n.raw != nil {
			m := *n.raw
			m.Content = []*yaml.Node{n.raw.Content[0], encodeNodes(n.Children, n.raw.Content[1])}
			return &m
		}
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
			stringNode(n.Title), encodeNodes(n.Children, nil),
		}}
	default:
		if n.raw != nil {
			return n.raw
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func stringNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// String renders n for logs and test failures.
func (n Node) String() string {
	switch n.Kind {
	case KindLeaf:
		return fmt.Sprintf("%s: %s", n.Title, n.Path)
	case KindBranch:
		return fmt.Sprintf("%s: [%d entries]", n.Title, len(n.Children))
	default:
		return "<other>"
	}
}
