package crawler

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/utils"
)

// títulos de menus e agregadores que aparecem como links de /concursos/,
// comparados sem acentos, caixa ou pontuação
var pciIgnoredTitles = normalizedSet(
	"Concursos", "Nacional", "Sudeste", "Sul", "Norte", "Nordeste", "Centro-Oeste",
	"Área Jurídica", "Área de Saúde", "Área de Educação", "Área Administrativa",
	"Prefeituras", "Câmaras", "Militar", "Polícia", "Bancos",
)

func normalizedSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[utils.NormalizeText(v)] = true
	}
	return set
}

var pciIgnoredHrefs = []string{
	"/concursos/nacional/", "/concursos/sudeste/", "/concursos/sul/",
	"/concursos/norte/", "/concursos/nordeste/", "/concursos/centro-oeste/",
	"/concursos/area-", "/concursos/busca", "/concursos/cursos", "/cursos/",
}

const pciMinTitleLength = 8

// PCISource lê a listagem de concursos do PCI Concursos.
type PCISource struct {
	htmlSource
}

func NewPCISource(profile config.SourceProfile, opts Options) (*PCISource, error) {
	base, err := newHTMLSource(config.SourcePCI, profile, opts)
	if err != nil {
		return nil, err
	}
	return &PCISource{htmlSource: base}, nil
}

func (s *PCISource) ListCandidates(ctx context.Context) ([]listing.RawTextBlock, error) {
	p, err := s.fetchListing(ctx)
	if err != nil {
		return nil, err
	}
	blocks := parsePCIListing(p)
	s.logger.Infof("Found %d contests", len(blocks))
	return blocks, nil
}

func looksLikeMenu(title, href string) bool {
	if title == "" || pciIgnoredTitles[utils.NormalizeText(title)] {
		return true
	}
	for _, frag := range pciIgnoredHrefs {
		if strings.Contains(href, frag) {
			return true
		}
	}
	return utf8.RuneCountInString(title) < pciMinTitleLength
}

func parsePCIListing(p *page) []listing.RawTextBlock {
	var blocks []listing.RawTextBlock

	p.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		title := textOf(a)
		href, _ := a.Attr("href")
		if title == "" {
			return
		}
		target, ok := resolveURL(p.url, href)
		if !ok {
			return
		}
		if !strings.Contains(target, "/noticias/") && !strings.Contains(target, "/concursos/") {
			return
		}
		if looksLikeMenu(title, target) {
			return
		}

		wrap := closestText(a)
		if wrap == "" {
			wrap = title
		}
		blocks = append(blocks, listing.RawTextBlock{
			Title:       title,
			SourceURL:   target,
			ContextText: wrap,
		})
	})

	return blocks
}

// FetchDetail lê o texto do edital (parágrafos e itens de lista da área principal).
func (s *PCISource) FetchDetail(ctx context.Context, block *listing.RawTextBlock) error {
	p, err := s.fetchDetail(ctx, block.SourceURL)
	if err != nil {
		return err
	}
	text := parsePCIDetail(p.doc)
	if text == "" {
		return NewParseError(s.profile.Name, block.SourceURL, errEmptyDetail)
	}
	block.DetailText = text
	block.DetailFetched = true
	return nil
}

func parsePCIDetail(doc *goquery.Document) string {
	var article *goquery.Selection
	for _, sel := range []string{
		"article",
		"div#content",
		"div.content",
		"section",
		"div[id*='conteudo'], div[class*='conteudo']",
	} {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			article = found
			break
		}
	}

	var paragraphs *goquery.Selection
	if article != nil {
		paragraphs = article.Find("p, li")
	} else {
		paragraphs = doc.Find("p")
	}

	parts := make([]string, 0, paragraphs.Length())
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		if txt := textOf(p); txt != "" {
			parts = append(parts, txt)
		}
	})
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	if article != nil {
		return textOf(article)
	}
	return textOf(doc.Find("body"))
}
