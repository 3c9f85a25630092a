package crawler

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/logger"
)

// Renderer devolve o HTML de uma página depois que waitSelector aparece.
type Renderer interface {
	Render(ctx context.Context, target, waitSelector string) (string, error)
}

// ChromeRenderer renderiza páginas em um Chrome headless via chromedp.
type ChromeRenderer struct {
	opts   Options
	logger *logger.Logger
}

func NewChromeRenderer(opts Options) *ChromeRenderer {
	return &ChromeRenderer{opts: opts, logger: logger.NewLogger("chrome_renderer")}
}

func (r *ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.opts.UserAgent))
	}
	if r.opts.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ChromePath))
	}
	return opts
}

func (r *ChromeRenderer) Render(ctx context.Context, target, waitSelector string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx, chromedp.WithLogf(r.logger.Debugf))
	defer cancelTask()

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, r.opts.Timeout)
		defer cancel()
	}

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", target, err)
	}

	return html, nil
}
