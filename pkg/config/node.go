package config

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// node is one element of a description file: a tag with attributes, text
// and child elements. Both the XML and YAML front ends produce node trees.
type node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*node
}

func (n *node) attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

func parseXML(b []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(b))
	var stack []*node
	var root *node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to parse xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{Tag: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, pkgerrors.Errorf("unexpected end element %s", t.Name.Local)
			}
			n := stack[len(stack)-1]
			n.Text = strings.TrimSpace(n.Text)
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, pkgerrors.New("no root element")
	}
	return root, nil
}

// parseYAML maps a YAML document onto the same node shape as the XML form.
// Root scalars become attributes. "settings" holds method blocks, either as
// a list of mappings carrying "name", or as a mapping keyed by method name.
// "snp" is a mapping from section name to tag -> path.
func parseYAML(b []byte) (*node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to parse yaml")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, pkgerrors.New("empty yaml document")
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, pkgerrors.Errorf("line %d: root must be a mapping", top.Line)
	}

	root := &node{Tag: "calibration", Attrs: map[string]string{}}
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i].Value, top.Content[i+1]
		switch {
		case val.Kind == yaml.ScalarNode:
			root.Attrs[key] = val.Value
		case key == "settings":
			s, err := yamlSettings(val)
			if err != nil {
				return nil, err
			}
			root.Children = append(root.Children, s)
		case key == "snp":
			if val.Kind != yaml.MappingNode {
				return nil, pkgerrors.Errorf("line %d: snp must be a mapping", val.Line)
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				sec, err := yamlLeaves("snp", val.Content[j+1])
				if err != nil {
					return nil, err
				}
				sec.Attrs["name"] = val.Content[j].Value
				root.Children = append(root.Children, sec)
			}
		default:
			root.Children = append(root.Children, &node{Tag: key, Attrs: map[string]string{}})
		}
	}
	return root, nil
}

func yamlSettings(val *yaml.Node) (*node, error) {
	settings := &node{Tag: "settings", Attrs: map[string]string{}}
	switch val.Kind {
	case yaml.SequenceNode:
		for _, item := range val.Content {
			m, err := yamlLeaves("method", item)
			if err != nil {
				return nil, err
			}
			for i, c := range m.Children {
				if c.Tag == "name" {
					m.Attrs["name"] = c.Text
					m.Children = append(m.Children[:i], m.Children[i+1:]...)
					break
				}
			}
			settings.Children = append(settings.Children, m)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(val.Content); i += 2 {
			m, err := yamlLeaves("method", val.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Attrs["name"] = val.Content[i].Value
			settings.Children = append(settings.Children, m)
		}
	default:
		return nil, pkgerrors.Errorf("line %d: settings must be a list or a mapping", val.Line)
	}
	return settings, nil
}

func yamlLeaves(tag string, val *yaml.Node) (*node, error) {
	n := &node{Tag: tag, Attrs: map[string]string{}}
	if val.Kind != yaml.MappingNode {
		return nil, pkgerrors.Errorf("line %d: %s must be a mapping", val.Line, tag)
	}
	for i := 0; i+1 < len(val.Content); i += 2 {
		k, v := val.Content[i], val.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, pkgerrors.Errorf("line %d: %s.%s must be a scalar", v.Line, tag, k.Value)
		}
		n.Children = append(n.Children, &node{Tag: k.Value, Attrs: map[string]string{}, Text: strings.TrimSpace(v.Value)})
	}
	return n, nil
}

func attrString(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}
	return "{" + strings.Join(parts, " ") + "}"
}
