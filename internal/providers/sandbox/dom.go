package sandbox

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrHierarchy is returned when an element would become its own descendant.
var ErrHierarchy = errors.New("the new child element contains the parent")

// DOM is a lightweight document model for sandboxed snippets. It starts with
// an empty body and learns elements from markup the snippet carries inline or
// assigns through innerHTML.
type DOM struct {
	root    *Element
	body    *Element
	changes []DOMChange
	mu      sync.RWMutex
}

// Element represents a DOM element. TextContent holds the element's own text;
// text of descendants lives on the children.
type Element struct {
	TagName     string
	ID          string
	ClassName   string
	TextContent string
	Attributes  map[string]string
	Children    []*Element
	Parent      *Element
}

// NewDOM creates an empty document with a body.
func NewDOM() *DOM {
	root := newElement("html")
	body := newElement("body")
	root.AddElement(body)
	return &DOM{root: root, body: body, changes: []DOMChange{}}
}

func newElement(tag string) *Element {
	return &Element{
		TagName:    strings.ToUpper(tag),
		Attributes: make(map[string]string),
		Children:   []*Element{},
	}
}

// Seed adds elements found in markup embedded in the source text, such as an
// HTML string literal, to the body.
func (d *DOM) Seed(source string) {
	if !strings.Contains(source, "<") {
		return
	}
	elems, err := ParseHTML(source)
	if err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range elems {
		d.body.AddElement(e)
	}
}

// SetInnerHTML replaces the children of elem with the parsed markup.
func (d *DOM) SetInnerHTML(elem *Element, markup string) error {
	elems, text, err := parseFragment(markup)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, child := range elem.Children {
		child.Parent = nil
	}
	elem.Children = []*Element{}
	elem.TextContent = text
	for _, e := range elems {
		elem.AddElement(e)
	}
	d.changes = append(d.changes, DOMChange{
		Type:     "set_html",
		Selector: elem.Selector(),
		Property: "innerHTML",
		Value:    markup,
	})
	return nil
}

// ParseHTML parses markup into detached elements. Text outside tags is
// ignored, so a whole JS snippet can be passed in.
func ParseHTML(markup string) ([]*Element, error) {
	elems, _, err := parseFragment(markup)
	return elems, err
}

// parseFragment returns the top-level elements of markup and the text that
// sits directly between them.
func parseFragment(markup string) ([]*Element, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, "", err
	}

	body := doc.Find("body")
	var elems []*Element
	body.Children().Each(func(_ int, s *goquery.Selection) {
		elems = append(elems, convertSelection(s))
	})
	return elems, ownText(body), nil
}

func ownText(s *goquery.Selection) string {
	var text strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if len(c.Nodes) > 0 && c.Nodes[0].Type == html.TextNode {
			text.WriteString(c.Nodes[0].Data)
		}
	})
	return text.String()
}

func convertSelection(s *goquery.Selection) *Element {
	elem := newElement(goquery.NodeName(s))
	if len(s.Nodes) > 0 {
		for _, attr := range s.Nodes[0].Attr {
			elem.Attributes[attr.Key] = attr.Val
		}
	}
	elem.ID = elem.Attributes["id"]
	elem.ClassName = elem.Attributes["class"]
	elem.TextContent = ownText(s)

	s.Children().Each(func(_ int, child *goquery.Selection) {
		elem.AddElement(convertSelection(child))
	})
	return elem
}

// Body returns the body element.
func (d *DOM) Body() *Element {
	return d.body
}

// Query finds elements by selector (simplified)
func (d *DOM) Query(selector string) []*Element {
	return d.QueryWithin(d.root, selector)
}

// QueryWithin is Query restricted to scope and its descendants. Supported
// selectors are #id, .class and a tag name.
func (d *DOM) QueryWithin(scope *Element, selector string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	selector = strings.TrimSpace(selector)
	switch {
	case strings.HasPrefix(selector, "#"):
		if elem := d.findByID(scope, strings.TrimPrefix(selector, "#")); elem != nil {
			return []*Element{elem}
		}
		return []*Element{}
	case strings.HasPrefix(selector, "."):
		return d.findByClass(scope, strings.TrimPrefix(selector, "."))
	default:
		return d.findByTag(scope, selector)
	}
}

// ByID returns the element with the given id, or nil.
func (d *DOM) ByID(id string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.findByID(d.root, id)
}

// GetChanges returns accumulated DOM changes
func (d *DOM) GetChanges() []DOMChange {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]DOMChange{}, d.changes...)
}

// RecordChange adds a DOM change
func (d *DOM) RecordChange(change DOMChange) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changes = append(d.changes, change)
}

// SetText replaces the element's content with text.
func (d *DOM) SetText(elem *Element, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, child := range elem.Children {
		child.Parent = nil
	}
	elem.Children = []*Element{}
	elem.TextContent = text
	d.changes = append(d.changes, DOMChange{
		Type:     "set_text",
		Selector: elem.Selector(),
		Property: "textContent",
		Value:    text,
	})
}

// SetAttribute sets an attribute on elem and records the change. The change
// selector is taken before the write, so renaming an id is traceable.
func (d *DOM) SetAttribute(elem *Element, name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	selector := elem.Selector()
	elem.SetAttribute(name, value)
	d.changes = append(d.changes, DOMChange{
		Type:     "set_attribute",
		Selector: selector,
		Property: name,
		Value:    value,
	})
}

// AppendChild moves child under parent, detaching it from any previous
// parent first.
func (d *DOM) AppendChild(parent, child *Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for p := parent; p != nil; p = p.Parent {
		if p == child {
			return ErrHierarchy
		}
	}
	child.Remove()
	parent.AddElement(child)
	d.changes = append(d.changes, DOMChange{
		Type:     "append_child",
		Selector: parent.Selector(),
		Property: "appendChild",
		Value:    child.Selector(),
	})
	return nil
}

// RemoveElement detaches elem from its parent.
func (d *DOM) RemoveElement(elem *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if elem.Parent == nil {
		return
	}
	parent := elem.Parent
	elem.Remove()
	d.changes = append(d.changes, DOMChange{
		Type:     "remove_child",
		Selector: parent.Selector(),
		Property: "removeChild",
		Value:    elem.Selector(),
	})
}

// Text returns the text of elem and all its descendants.
func (d *DOM) Text(elem *Element) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var b strings.Builder
	elem.writeText(&b)
	return b.String()
}

// InnerHTML serializes the content of elem.
func (d *DOM) InnerHTML(elem *Element) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var b strings.Builder
	if elem.TextContent != "" {
		b.WriteString(html.EscapeString(elem.TextContent))
	}
	for _, child := range elem.Children {
		_ = html.Render(&b, child.node())
	}
	return b.String()
}

// ChildList returns a snapshot of elem's children.
func (d *DOM) ChildList(elem *Element) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*Element{}, elem.Children...)
}

// Element methods

// Selector returns an #id selector when the element has an id, else its tag.
func (e *Element) Selector() string {
	if e.ID != "" {
		return "#" + e.ID
	}
	return strings.ToLower(e.TagName)
}

// GetAttribute retrieves attribute value
func (e *Element) GetAttribute(name string) (string, bool) {
	v, ok := e.Attributes[name]
	return v, ok
}

// SetAttribute sets attribute value, keeping id and class in sync.
func (e *Element) SetAttribute(name, value string) {
	e.Attributes[name] = value
	switch name {
	case "id":
		e.ID = value
	case "class":
		e.ClassName = value
	}
}

// AddElement adds a child element
func (e *Element) AddElement(child *Element) {
	child.Parent = e
	e.Children = append(e.Children, child)
}

// Remove removes element from parent
func (e *Element) Remove() {
	if e.Parent == nil {
		return
	}
	children := e.Parent.Children[:0]
	for _, child := range e.Parent.Children {
		if child != e {
			children = append(children, child)
		}
	}
	e.Parent.Children = children
	e.Parent = nil
}

// Helper methods for querying

func (d *DOM) findByID(elem *Element, id string) *Element {
	if elem.ID == id && id != "" {
		return elem
	}
	for _, child := range elem.Children {
		if found := d.findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func (d *DOM) findByClass(elem *Element, class string) []*Element {
	var result []*Element
	for _, c := range strings.Fields(elem.ClassName) {
		if c == class {
			result = append(result, elem)
			break
		}
	}
	for _, child := range elem.Children {
		result = append(result, d.findByClass(child, class)...)
	}
	return result
}

func (d *DOM) findByTag(elem *Element, tag string) []*Element {
	var result []*Element
	if strings.EqualFold(elem.TagName, tag) {
		result = append(result, elem)
	}
	for _, child := range elem.Children {
		result = append(result, d.findByTag(child, tag)...)
	}
	return result
}

func (e *Element) writeText(b *strings.Builder) {
	b.WriteString(e.TextContent)
	for _, child := range e.Children {
		child.writeText(b)
	}
}

// node converts the element into an html node for rendering. Attributes are
// sorted so output is stable.
func (e *Element) node() *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: strings.ToLower(e.TagName)}

	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: e.Attributes[k]})
	}

	if e.TextContent != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: e.TextContent})
	}
	for _, child := range e.Children {
		n.AppendChild(child.node())
	}
	return n
}
