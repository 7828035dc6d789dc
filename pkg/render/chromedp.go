package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/apperrors"
)

const jpegQuality = 90

// ChromeRenderer drives a headless browser over the chart HTML and captures
// the settled layout as an image.
type ChromeRenderer struct {
	viewportWidth  int
	viewportHeight int
	scaleFactor    float64
	layoutWait     time.Duration
	logger         *zap.Logger
}

// NewChromeRenderer creates a renderer with the given viewport geometry.
// layoutWait bounds how long a capture waits for the layout-settled signal.
func NewChromeRenderer(viewportWidth, viewportHeight int, scaleFactor float64, layoutWait time.Duration, logger *zap.Logger) *ChromeRenderer {
	return &ChromeRenderer{
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
		scaleFactor:    scaleFactor,
		layoutWait:     layoutWait,
		logger:         logger,
	}
}

var _ Renderer = (*ChromeRenderer)(nil)

// Render builds the chart page, loads it in a fresh browser context, waits
// for the layout to settle (or the wait to time out) and screenshots it.
// Browser state never outlives the request.
func (r *ChromeRenderer) Render(ctx context.Context, nodes []Node, edges []Edge, style Style) ([]byte, error) {
	style = style.Normalize()

	html, err := BuildChartHTML(nodes, edges, style, r.viewportWidth, r.viewportHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrRenderFailed, err)
	}

	pagePath, cleanup, err := writeChartPage(html)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrRenderFailed, err)
	}
	defer cleanup()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(r.viewportWidth), int64(r.viewportHeight),
			chromedp.EmulateScale(r.scaleFactor)),
		chromedp.Navigate("file://"+pagePath),
	); err != nil {
		return nil, fmt.Errorf("%w: navigation: %v", apperrors.ErrRenderFailed, err)
	}

	// Wait for the settle signal; on timeout, capture whatever the layout
	// converged to rather than failing the request.
	err = chromedp.Run(browserCtx,
		chromedp.Poll("window.__layoutDone === true", nil,
			chromedp.WithPollingTimeout(r.layoutWait)))
	if err != nil {
		if !errors.Is(err, chromedp.ErrPollingTimeout) {
			return nil, fmt.Errorf("%w: layout wait: %v", apperrors.ErrRenderFailed, err)
		}
		r.logger.Warn("Layout settle wait timed out, capturing anyway",
			zap.Duration("layout_wait", r.layoutWait))
	}

	var image []byte
	capture := chromedp.CaptureScreenshot(&image)
	if style.Format == FormatJPEG {
		capture = chromedp.FullScreenshot(&image, jpegQuality)
	}
	if err := chromedp.Run(browserCtx, capture); err != nil {
		return nil, fmt.Errorf("%w: screenshot: %v", apperrors.ErrRenderFailed, err)
	}

	r.logger.Info("Rendered graph image",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
		zap.String("format", string(style.Format)),
		zap.Int("bytes", len(image)))

	return image, nil
}

// writeChartPage persists the chart HTML to a temp file so the browser can
// load it over file://.
func writeChartPage(html []byte) (string, func(), error) {
	dir, err := os.MkdirTemp("", "relgraph-render-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create render dir: %w", err)
	}

	path := filepath.Join(dir, "chart.html")
	if err := os.WriteFile(path, html, 0o600); err != nil {
		os.RemoveAll(dir)
		return "", nil, fmt.Errorf("failed to write chart page: %w", err)
	}

	return path, func() { os.RemoveAll(dir) }, nil
}
