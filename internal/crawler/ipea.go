package crawler

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/utils"
)

var ipeaPathPrefixes = []string{
	"/portal/bolsas-de-pesquisa",
	"/portal/bolsas-de-pesquisa-lista/",
}

// IPEASource lê as bolsas de pesquisa do IPEA. Só segue links do próprio host
// e sob os caminhos de bolsas.
type IPEASource struct {
	htmlSource
	allowedHosts map[string]bool
}

func NewIPEASource(profile config.SourceProfile, opts Options) (*IPEASource, error) {
	base, err := newHTMLSource(config.SourceIPEA, profile, opts)
	if err != nil {
		return nil, err
	}
	return &IPEASource{htmlSource: base, allowedHosts: hostVariants(profile.ListURL)}, nil
}

// hostVariants aceita o host da listagem com e sem "www.".
func hostVariants(listURL string) map[string]bool {
	hosts := make(map[string]bool, 2)
	u, err := url.Parse(listURL)
	if err != nil || u.Host == "" {
		return hosts
	}
	bare := strings.TrimPrefix(u.Host, "www.")
	hosts[bare] = true
	hosts["www."+bare] = true
	return hosts
}

func (s *IPEASource) isAllowed(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !s.allowedHosts[u.Host] {
		return false
	}
	for _, prefix := range ipeaPathPrefixes {
		if strings.HasPrefix(u.Path, prefix) {
			return true
		}
	}
	return false
}

func (s *IPEASource) ListCandidates(ctx context.Context) ([]listing.RawTextBlock, error) {
	p, err := s.fetchListing(ctx)
	if err != nil {
		return nil, err
	}

	ul := p.doc.Find("ul.search-resultsbolsas.list-striped").First()
	if ul.Length() == 0 {
		s.logger.Warn("Listing container not found, page layout may have changed")
		return nil, nil
	}

	blocks := parseIPEAListing(ul, p.url, s.isAllowed)
	s.logger.Infof("Found %d grants", len(blocks))
	return blocks, nil
}

func parseIPEAListing(ul *goquery.Selection, base *url.URL, allowed func(string) bool) []listing.RawTextBlock {
	var blocks []listing.RawTextBlock

	ul.Find("li").Each(func(_ int, li *goquery.Selection) {
		a := li.Find("h4.result-title a[href]").First()
		if a.Length() == 0 {
			return
		}
		title := textOf(a)
		href, _ := a.Attr("href")
		target, ok := resolveURL(base, href)
		if !ok || title == "" || !allowed(target) {
			return
		}

		block := listing.RawTextBlock{
			Title:       title,
			SourceURL:   target,
			ContextText: textOf(li),
			Summary:     textOf(li.Find("p.objetivo").First()),
		}

		li.Find("p").Each(func(_ int, p *goquery.Selection) {
			txt := textOf(p)
			key, value, found := strings.Cut(txt, ":")
			if found {
				switch strings.ToLower(strings.TrimSpace(key)) {
				case "situação", "situacao":
					block.ListingMeta.Status = utils.Normalize(value)
				case "programa":
					block.ListingMeta.Program = utils.Normalize(value)
				case "ano":
					block.ListingMeta.Year = utils.Normalize(value)
				}
			}
			if block.DeadlineHint == "" && strings.Contains(txt, "Prazo de inscrição") {
				block.DeadlineHint = txt
			}
		})

		blocks = append(blocks, block)
	})

	return blocks
}

// FetchDetail lê o corpo do anúncio e o quadro de informações.
func (s *IPEASource) FetchDetail(ctx context.Context, block *listing.RawTextBlock) error {
	if !s.isAllowed(block.SourceURL) {
		return nil
	}

	p, err := s.fetchDetail(ctx, block.SourceURL)
	if err != nil {
		return err
	}

	text, meta := parseIPEADetail(p.doc)
	if text == "" && meta.IsZero() {
		return NewParseError(s.profile.Name, block.SourceURL, errEmptyDetail)
	}
	block.DetailText, block.DetailMeta = text, meta
	block.DetailFetched = true
	return nil
}

func parseIPEADetail(doc *goquery.Document) (string, listing.Meta) {
	body := doc.Find("div[itemprop='articleBody']").First()
	for _, fallback := range []string{"main", "article", "div#content", "body"} {
		if body.Length() > 0 {
			break
		}
		body = doc.Find(fallback).First()
	}

	var meta listing.Meta
	doc.Find("div.informacoes-bolsa p").Each(func(_ int, p *goquery.Selection) {
		key, value, found := strings.Cut(textOf(p), ":")
		if !found {
			return
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = utils.Normalize(value)
		switch {
		case key == "situação" || key == "situacao":
			meta.Status = value
		case key == "programa":
			meta.Program = value
		case key == "ano":
			meta.Year = value
		case strings.Contains(key, "prazo") && meta.Deadline == "":
			meta.Deadline = value
		}
	})

	return textOf(body), meta
}
