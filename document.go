package dart

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// ErrUnparsable is returned when neither strict nor lenient parsing yields a tree.
var ErrUnparsable = eris.New("dart: unparsable document")

// ParseMode records which parser produced a document tree.
type ParseMode string

// Parse modes, in the order they are attempted.
const (
	ModeStrictXML ParseMode = "strict-xml"
	ModeLenient   ParseMode = "lenient-markup"
)

// Attr is one attribute on a document node.
type Attr struct {
	Prefix string
	Name   string
	Value  string
}

// Node is a namespace-aware element of a parsed financial report. Both parse
// modes produce the same shape so extraction never cares which one ran.
type Node struct {
	Prefix   string // namespace prefix as written in the document ("ifrs-full")
	Local    string // local element name ("Revenue")
	Attrs    []Attr
	Text     string // character data directly inside this element
	Children []*Node
	Parent   *Node
}

// QualifiedName returns "prefix:local", or just the local name without a prefix.
func (n *Node) QualifiedName() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Attr gets an attribute value by local name, case-insensitively because the
// lenient parser lowercases attribute names.
func (n *Node) Attr(name string) string {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value
		}
	}
	return ""
}

// Is reports whether the node's local name matches, ignoring case.
func (n *Node) Is(local string) bool {
	return strings.EqualFold(n.Local, local)
}

// TextContent concatenates the character data of the node and its descendants.
func (n *Node) TextContent() string {
	var buf strings.Builder
	var f func(*Node)
	f = func(n *Node) {
		buf.WriteString(n.Text)
		for _, c := range n.Children {
			f(c)
		}
	}
	f(n)
	return buf.String()
}

// Walk visits the node and all descendants in document order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// FindAll returns every descendant (including n) with the given local name.
func (n *Node) FindAll(local string) []*Node {
	var found []*Node
	n.Walk(func(c *Node) bool {
		if c.Is(local) {
			found = append(found, c)
		}
		return true
	})
	return found
}

// Find returns the first descendant (including n) with the given local name.
func (n *Node) Find(local string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Is(local) {
			found = c
			return false
		}
		return true
	})
	return found
}

// ParseDocument builds a node tree from decoded document text. Strict XML is
// tried first; if the markup is not well-formed, a lenient HTML-style parse
// is attempted.
func ParseDocument(text string) (*Node, ParseMode, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", ErrEmptyDocument
	}

	root, strictErr := parseStrictXML(text)
	if strictErr == nil {
		return root, ModeStrictXML, nil
	}

	root, lenientErr := parseLenient(text)
	if lenientErr == nil {
		return root, ModeLenient, nil
	}

	return nil, "", eris.Wrapf(ErrUnparsable, "dart: strict: %v; lenient: %v", strictErr, lenientErr)
}

// parseStrictXML walks encoding/xml tokens into a Node tree, resolving
// namespace URIs back to the prefixes declared in the document.
func parseStrictXML(text string) (*Node, error) {
	decoder := xml.NewDecoder(strings.NewReader(text))
	decoder.Strict = true
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		// Text is already UTF-8; the prolog may still name the original charset
		return input, nil
	}

	prefixes := map[string]string{}
	var root *Node
	var stack []*Node

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dart: xml token")
		}

		switch elem := token.(type) {
		case xml.StartElement:
			for _, a := range elem.Attr {
				switch {
				case a.Name.Space == "xmlns":
					prefixes[a.Value] = a.Name.Local
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					prefixes[a.Value] = ""
				}
			}

			node := &Node{
				Prefix: resolvePrefix(prefixes, elem.Name.Space),
				Local:  elem.Name.Local,
			}
			for _, a := range elem.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				node.Attrs = append(node.Attrs, Attr{
					Prefix: resolvePrefix(prefixes, a.Name.Space),
					Name:   a.Name.Local,
					Value:  a.Value,
				})
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, eris.New("dart: multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				node.Parent = parent
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(elem)
			}
		}
	}

	if root == nil {
		return nil, eris.New("dart: no root element")
	}
	return root, nil
}

// resolvePrefix maps a namespace URI to its declared prefix, falling back to
// a guess from the URI shape when the declaration was not seen.
func resolvePrefix(prefixes map[string]string, space string) string {
	if space == "" {
		return ""
	}
	if p, ok := prefixes[space]; ok {
		return p
	}
	return getNamespacePrefix(space)
}

// parseLenient parses tag soup through goquery/x-net-html and converts the
// result. Tag names such as "ifrs-full:revenue" arrive lowercased with the
// prefix still attached, so the prefix is split back off here.
func parseLenient(text string) (*Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, eris.Wrap(err, "dart: lenient parse")
	}
	if len(doc.Nodes) == 0 {
		return nil, eris.New("dart: lenient parse produced no nodes")
	}

	root := &Node{Local: "#document"}
	for c := doc.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		convertHTMLNode(c, root)
	}

	if len(doc.Find("body").Children().Nodes) == 0 && strings.TrimSpace(root.TextContent()) == "" {
		return nil, eris.New("dart: lenient parse found no content")
	}
	return root, nil
}

func convertHTMLNode(h *html.Node, parent *Node) {
	switch h.Type {
	case html.TextNode:
		parent.Text += h.Data
	case html.ElementNode:
		prefix, local := splitQualified(h.Data)
		node := &Node{Prefix: prefix, Local: local, Parent: parent}
		for _, a := range h.Attr {
			ap, an := splitQualified(a.Key)
			if a.Namespace != "" {
				ap = a.Namespace
			}
			node.Attrs = append(node.Attrs, Attr{Prefix: ap, Name: an, Value: a.Val})
		}
		parent.Children = append(parent.Children, node)
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			convertHTMLNode(c, node)
		}
	}
}

func splitQualified(name string) (string, string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Format describes the flavour of structured financial report.
type Format string

// Document formats recognised by DetectFormat.
const (
	FormatInline     Format = "inline"
	FormatStandalone Format = "standalone"
	FormatUnknown    Format = "unknown"
)

// DetectFormat determines if the text is inline XBRL or a standalone instance
func DetectFormat(text string) Format {
	if strings.Contains(text, "xmlns:ix=") ||
		strings.Contains(text, "<ix:") ||
		strings.Contains(text, "inlineXBRL") {
		return FormatInline
	}

	if strings.Contains(text, "<xbrl") ||
		strings.Contains(text, ":xbrl") ||
		strings.Contains(text, "xmlns:xbrli=") {
		return FormatStandalone
	}

	return FormatUnknown
}
