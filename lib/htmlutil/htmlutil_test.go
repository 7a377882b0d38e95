package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetAnchors(t *testing.T) {
	page := `<html><body>
		<div class="result">
			<a href="/uithoorn/Accommodation/Book/123">
				<span>Brede School Legmeer / </span>
				<span>Gymzaal A</span>
			</a>
		</div>
		<a href="/uithoorn/Accommodation/Book/456">Sporthal   De Scheg</a>
		<a>no destination</a>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), doc.Find("a[href*='/Accommodation/Book/']"))
	require.Equal(t, []Anchor{
		{Name: "Brede School Legmeer / Gymzaal A", Href: "/uithoorn/Accommodation/Book/123"},
		{Name: "Sporthal De Scheg", Href: "/uithoorn/Accommodation/Book/456"},
	}, anchors)
}
