package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// Options são os parâmetros de rede comuns a todos os adaptadores.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	ChromePath string
}

// page é um documento HTML obtido e a URL final de onde ele veio.
type page struct {
	doc *goquery.Document
	url *url.URL
}

// newCollector configura o coletor Colly de uma fonte. O intervalo entre
// requisições ao mesmo domínio é o DetailDelay do perfil.
func newCollector(opts Options, delay time.Duration) (*colly.Collector, error) {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	if opts.UserAgent != "" {
		c.UserAgent = opts.UserAgent
	}
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
	}); err != nil {
		return nil, fmt.Errorf("failed to set limit rule: %w", err)
	}

	return c, nil
}

// fetch baixa target e devolve o documento parseado. Cada chamada usa um clone
// do coletor, que compartilha o backend HTTP (e o limite) mas não os callbacks.
func fetch(ctx context.Context, base *colly.Collector, target string) (*page, error) {
	c := base.Clone()
	c.Context = ctx

	var (
		body     []byte
		finalURL *url.URL
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		finalURL = r.Request.URL
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	if err := c.Visit(target); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	if finalURL == nil {
		finalURL, _ = url.Parse(target)
	}

	return &page{doc: doc, url: finalURL}, nil
}
