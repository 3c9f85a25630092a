package crawler

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
)

// CAPESSource lê as chamadas públicas da CAPES no gov.br. Não há página de
// detalhe: o texto do card é todo o contexto disponível.
type CAPESSource struct {
	htmlSource
}

func NewCAPESSource(profile config.SourceProfile, opts Options) (*CAPESSource, error) {
	base, err := newHTMLSource(config.SourceCAPES, profile, opts)
	if err != nil {
		return nil, err
	}
	return &CAPESSource{htmlSource: base}, nil
}

func (s *CAPESSource) ListCandidates(ctx context.Context) ([]listing.RawTextBlock, error) {
	p, err := s.fetchListing(ctx)
	if err != nil {
		return nil, err
	}
	blocks := parseCAPESListing(p)
	s.logger.Infof("Found %d calls", len(blocks))
	return blocks, nil
}

// FetchDetail não faz nada; links de chamadas costumam ser PDFs.
func (s *CAPESSource) FetchDetail(context.Context, *listing.RawTextBlock) error {
	return nil
}

func parseCAPESListing(p *page) []listing.RawTextBlock {
	var blocks []listing.RawTextBlock

	p.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		title := textOf(a)
		if title == "" || !strings.Contains(strings.ToLower(title), "chamada") {
			return
		}
		href, _ := a.Attr("href")
		target, ok := resolveURL(p.url, href)
		if !ok {
			return
		}

		wrap := closestText(a)
		blocks = append(blocks, listing.RawTextBlock{
			Title:       title,
			SourceURL:   target,
			ContextText: wrap,
			Summary:     wrap,
		})
	})

	return blocks
}
