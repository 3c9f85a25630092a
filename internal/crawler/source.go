package crawler

import (
	"context"
	"fmt"

	"github.com/gocolly/colly/v2"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/logger"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/service"
)

var (
	_ service.Source = (*CAPESSource)(nil)
	_ service.Source = (*IPEASource)(nil)
	_ service.Source = (*PCISource)(nil)
	_ service.Source = (*UNCareersSource)(nil)
)

// New cria o adaptador da fonte id.
func New(id string, profile config.SourceProfile, opts Options) (service.Source, error) {
	switch id {
	case config.SourceCAPES:
		return NewCAPESSource(profile, opts)
	case config.SourceIPEA:
		return NewIPEASource(profile, opts)
	case config.SourcePCI:
		return NewPCISource(profile, opts)
	case config.SourceUNCareers:
		return NewUNCareersSource(profile, NewChromeRenderer(opts)), nil
	default:
		return nil, fmt.Errorf("unknown source %q", id)
	}
}

// htmlSource reúne o que as fontes estáticas (Colly + goquery) compartilham.
type htmlSource struct {
	id        string
	profile   config.SourceProfile
	collector *colly.Collector
	logger    *logger.Logger
}

func newHTMLSource(id string, profile config.SourceProfile, opts Options) (htmlSource, error) {
	c, err := newCollector(opts, profile.DetailDelay)
	if err != nil {
		return htmlSource{}, err
	}
	return htmlSource{
		id:        id,
		profile:   profile,
		collector: c,
		logger:    logger.NewLogger("crawler").WithField("source", id),
	}, nil
}

func (s *htmlSource) ID() string {
	return s.id
}

func (s *htmlSource) Profile() config.SourceProfile {
	return s.profile
}

// fetchListing baixa a página de listagem; qualquer falha é fatal.
func (s *htmlSource) fetchListing(ctx context.Context) (*page, error) {
	s.logger.WithField("url", s.profile.ListURL).Info("Fetching listing page")
	p, err := fetch(ctx, s.collector, s.profile.ListURL)
	if err != nil {
		return nil, NewListingError(s.profile.Name, s.profile.ListURL, err)
	}
	return p, nil
}

// fetchDetail baixa uma página de detalhe.
func (s *htmlSource) fetchDetail(ctx context.Context, target string) (*page, error) {
	s.logger.WithField("url", target).Debug("Fetching detail page")
	p, err := fetch(ctx, s.collector, target)
	if err != nil {
		return nil, NewDetailError(s.profile.Name, target, err)
	}
	return p, nil
}
