package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/utils"
)

// elementos que quebram linha no texto renderizado
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "section": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true,
}

// rawText devolve o texto da seleção com quebras de linha entre blocos, como o
// innerText de um navegador. Conteúdo de script e style é ignorado.
func rawText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		writeText(&b, n)
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

// textOf é rawText com espaços colapsados.
func textOf(s *goquery.Selection) string {
	return utils.Normalize(rawText(s))
}

// resolveURL resolve href contra a página onde ele apareceu.
func resolveURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base == nil {
		return ref.String(), ref.IsAbs()
	}
	return base.ResolveReference(ref).String(), true
}

// closestText é o texto do contêiner mais próximo (article, li ou div).
func closestText(s *goquery.Selection) string {
	return textOf(s.Closest("article, li, div"))
}
