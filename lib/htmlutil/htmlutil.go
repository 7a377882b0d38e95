// Package htmlutil extracts structure from scraped booking pages.
package htmlutil

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("gymwatch.lib.htmlutil")

// Anchor is one <a> tag, its flattened display text and link target.
type Anchor struct {
	Name string
	Href string
}

func innerText(node *html.Node) string {
	var b strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node == nil {
			return
		}
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return b.String()
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// cleanName flattens anchor text to a single printable line. The
// accommodation pages wrap anchor names in nested markup full of
// newlines and non printable padding.
func cleanName(raw string) string {
	var printable strings.Builder
	for _, c := range raw {
		if unicode.IsPrint(c) {
			printable.WriteRune(c)
		}
	}
	name := strings.Trim(printable.String(), " \t\n")
	return innerWhitespace.ReplaceAllString(name, " ")
}

// GetAnchors collects the anchors in sel. Hrefs that do not parse as
// urls are skipped.
func GetAnchors(ctx context.Context, sel *goquery.Selection) []Anchor {
	ctx, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}

		name := cleanName(innerText(n))
		linkStr := link.String()
		anchors = append(anchors, Anchor{
			Name: name,
			Href: linkStr,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", linkStr),
		))
	}

	return anchors
}
