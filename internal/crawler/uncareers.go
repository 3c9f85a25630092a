package crawler

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/logger"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/utils"
)

const unJobSelector = "a[href*='jobdetail']"

var unLocationPattern = regexp.MustCompile(`(?i)(?:duty station|location)[^\p{L}\p{N}\n]{0,5}([\p{L}\p{N} ,/-]+)`)

// UNCareersSource lê as vagas do portal de carreiras da ONU, que só monta a
// lista via JavaScript.
type UNCareersSource struct {
	profile  config.SourceProfile
	renderer Renderer
	logger   *logger.Logger
}

func NewUNCareersSource(profile config.SourceProfile, renderer Renderer) *UNCareersSource {
	return &UNCareersSource{
		profile:  profile,
		renderer: renderer,
		logger:   logger.NewLogger("crawler").WithField("source", config.SourceUNCareers),
	}
}

func (s *UNCareersSource) ID() string {
	return config.SourceUNCareers
}

func (s *UNCareersSource) Profile() config.SourceProfile {
	return s.profile
}

func (s *UNCareersSource) ListCandidates(ctx context.Context) ([]listing.RawTextBlock, error) {
	s.logger.WithField("url", s.profile.ListURL).Info("Rendering listing page")

	body, err := s.renderer.Render(ctx, s.profile.ListURL, unJobSelector)
	if err != nil {
		return nil, NewListingError(s.profile.Name, s.profile.ListURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, NewListingError(s.profile.Name, s.profile.ListURL, err)
	}
	base, _ := url.Parse(s.profile.ListURL)

	blocks := parseUNListing(doc, base)
	s.logger.Infof("Found %d job openings", len(blocks))
	return blocks, nil
}

// FetchDetail não faz nada; os cards já trazem prazo e local.
func (s *UNCareersSource) FetchDetail(context.Context, *listing.RawTextBlock) error {
	return nil
}

func parseUNListing(doc *goquery.Document, base *url.URL) []listing.RawTextBlock {
	var blocks []listing.RawTextBlock

	doc.Find(unJobSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		target, ok := resolveURL(base, href)
		if !ok {
			return
		}

		card := a.Closest("div")
		box := rawText(card)
		title := utils.FirstNonEmpty(textOf(a), utils.Normalize(box))
		if title == "" {
			return
		}

		block := listing.RawTextBlock{
			Title:        title,
			SourceURL:    target,
			ContextText:  utils.Normalize(box),
			Summary:      utils.Normalize(box),
			DeadlineHint: utils.Normalize(box),
		}
		if m := unLocationPattern.FindStringSubmatch(box); m != nil {
			block.Location = utils.Normalize(m[1])
		}
		blocks = append(blocks, block)
	})

	return blocks
}
