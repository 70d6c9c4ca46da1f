package selector

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Selection
}

func TestResolvePrimaryWins(t *testing.T) {
	root := parse(t, `<div class="title">Primary</div><span class="name">Alt</span>`)

	found := Resolve(root, ".title", ".name")
	assert.Equal(t, 1, found.Length())
	assert.Equal(t, "Primary", found.First().Text())
}

func TestResolveFallsBackInOrder(t *testing.T) {
	root := parse(t, `<span class="alt-a">A</span><span class="alt-b">B</span>`)

	// Primary misses, both alternatives match; the earlier one wins
	found := Resolve(root, ".missing", ".alt-a", ".alt-b")
	assert.Equal(t, "A", found.First().Text())

	found = Resolve(root, ".missing", ".alt-b", ".alt-a")
	assert.Equal(t, "B", found.First().Text())
}

func TestResolveAllMiss(t *testing.T) {
	root := parse(t, `<div>nothing relevant</div>`)

	found := Resolve(root, ".a", ".b", ".c")
	assert.Equal(t, 0, found.Length())
}

func TestResolveIsDeterministic(t *testing.T) {
	root := parse(t, `<p class="x">one</p><p class="y">two</p>`)

	first := Resolve(root, "", ".y", ".x").First().Text()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Resolve(root, "", ".y", ".x").First().Text())
	}
}

func TestText(t *testing.T) {
	root := parse(t, `<div class="price">  Rs. 1,250  </div>`)

	text, ok := Text(root, Chain{Primary: ".price"})
	assert.True(t, ok)
	assert.Equal(t, "Rs. 1,250", text)

	_, ok = Text(root, Chain{Primary: ".absent"})
	assert.False(t, ok)
}

func TestAttr(t *testing.T) {
	root := parse(t, `<a class="link" href="/p/espresso">Espresso</a>`)

	href, ok := Attr(root, Chain{Primary: ".missing", Alternatives: []string{".link"}}, "href")
	assert.True(t, ok)
	assert.Equal(t, "/p/espresso", href)

	_, ok = Attr(root, Chain{Primary: ".link"}, "data-src")
	assert.False(t, ok)
}

func TestChainIsZero(t *testing.T) {
	assert.True(t, Chain{}.IsZero())
	assert.False(t, Chain{Primary: ".x"}.IsZero())
	assert.False(t, Chain{Alternatives: []string{".y"}}.IsZero())
}
