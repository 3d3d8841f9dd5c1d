package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHTML(t *testing.T) {
	elems, err := ParseHTML(`<ul id="list"><li class="a b">one</li><li>two</li></ul>`)
	require.NoError(t, err)
	require.Len(t, elems, 1)

	list := elems[0]
	assert.Equal(t, "UL", list.TagName)
	assert.Equal(t, "list", list.ID)
	require.Len(t, list.Children, 2)
	assert.Equal(t, "a b", list.Children[0].ClassName)
	assert.Equal(t, list, list.Children[0].Parent)
}

func TestQuery(t *testing.T) {
	dom := NewDOM()
	dom.Seed(`var s = '<section id="main"><span class="x">1</span><span class="y x">2</span></section>';`)

	tests := []struct {
		selector string
		want     int
	}{
		{selector: "#main", want: 1},
		{selector: "#nope", want: 0},
		{selector: ".x", want: 2},
		{selector: ".y", want: 1},
		{selector: "span", want: 2},
		{selector: "SECTION", want: 1},
		{selector: " body ", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			assert.Len(t, dom.Query(tt.selector), tt.want)
		})
	}

	require.NotNil(t, dom.ByID("main"))
	assert.Nil(t, dom.ByID(""))
}

func TestSeedWithoutMarkup(t *testing.T) {
	dom := NewDOM()
	dom.Seed("const a = 1 + 2;")
	assert.Empty(t, dom.Body().Children)
}

func TestElementAttributes(t *testing.T) {
	elem := newElement("div")
	elem.SetAttribute("id", "box")
	elem.SetAttribute("class", "wide")

	assert.Equal(t, "box", elem.ID)
	assert.Equal(t, "wide", elem.ClassName)
	assert.Equal(t, "#box", elem.Selector())

	v, ok := elem.GetAttribute("class")
	assert.True(t, ok)
	assert.Equal(t, "wide", v)

	_, ok = elem.GetAttribute("title")
	assert.False(t, ok)
}

func TestElementRemove(t *testing.T) {
	dom := NewDOM()
	child := newElement("p")
	dom.Body().AddElement(child)
	require.Len(t, dom.Body().Children, 1)

	child.Remove()
	assert.Empty(t, dom.Body().Children)
	assert.Nil(t, child.Parent)

	// Detached elements ignore Remove
	child.Remove()
	assert.Equal(t, "p", child.Selector())
}

func TestSetInnerHTMLRecordsChange(t *testing.T) {
	dom := NewDOM()
	target := newElement("div")
	target.SetAttribute("id", "out")
	dom.Body().AddElement(target)

	require.NoError(t, dom.SetInnerHTML(target, "<b>bold</b>"))
	require.Len(t, target.Children, 1)
	assert.Equal(t, "B", target.Children[0].TagName)

	changes := dom.GetChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, "#out", changes[0].Selector)
	assert.Equal(t, "<b>bold</b>", changes[0].Value)
}

func TestInnerHTMLSerializes(t *testing.T) {
	dom := NewDOM()
	target := newElement("div")
	dom.Body().AddElement(target)

	require.NoError(t, dom.SetInnerHTML(target, `<a title="t" href="/x">go &amp; see</a><br>`))
	assert.Equal(t, `<a href="/x" title="t">go &amp; see</a><br/>`, dom.InnerHTML(target))
	assert.Equal(t, "go & see", dom.Text(target))

	require.NoError(t, dom.SetInnerHTML(target, "plain <b>bold</b>"))
	assert.Equal(t, "plain <b>bold</b>", dom.InnerHTML(target))
	assert.Equal(t, "plain bold", dom.Text(target))
}

func TestSetTextClearsChildren(t *testing.T) {
	dom := NewDOM()
	target := newElement("div")
	require.NoError(t, dom.SetInnerHTML(target, "<i>x</i>"))
	child := target.Children[0]

	dom.SetText(target, "a < b")
	assert.Empty(t, target.Children)
	assert.Nil(t, child.Parent)
	assert.Equal(t, "a &lt; b", dom.InnerHTML(target))
}

func TestAppendChild(t *testing.T) {
	dom := NewDOM()
	outer := newElement("div")
	inner := newElement("span")
	inner.SetAttribute("id", "in")

	require.NoError(t, dom.AppendChild(dom.Body(), outer))
	require.NoError(t, dom.AppendChild(outer, inner))
	assert.Equal(t, inner, dom.ByID("in"))

	assert.ErrorIs(t, dom.AppendChild(inner, outer), ErrHierarchy)
	assert.ErrorIs(t, dom.AppendChild(outer, outer), ErrHierarchy)

	// Moving detaches from the previous parent
	require.NoError(t, dom.AppendChild(dom.Body(), inner))
	assert.Empty(t, outer.Children)
	assert.Len(t, dom.QueryWithin(outer, "span"), 0)
	assert.Len(t, dom.QueryWithin(dom.Body(), "span"), 1)

	dom.RemoveElement(inner)
	assert.Nil(t, dom.ByID("in"))
	assert.Equal(t, "remove_child", dom.GetChanges()[len(dom.GetChanges())-1].Type)
}
