package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const defaultSettle = 300 * time.Millisecond

// ImageFormat is the raster encoding of a screenshot.
type ImageFormat string

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

type CaptureOptions struct {
	Selector string
	Width    int
	Scale    float64
	Format   ImageFormat
	// Quality applies to JPEG only, 0..100.
	Quality int
}

type PDFOptions struct {
	Page            PageSize
	PrintBackground bool
}

// DOMSnapshot is a selector's subtree with computed styles inlined.
type DOMSnapshot struct {
	Markup string  `json:"markup"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type elementBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ChromiumEngine drives a shared headless Chromium. Each call runs in a
// fresh tab so concurrent exports do not share page state.
type ChromiumEngine struct {
	BrowserPath string
	Timeout     time.Duration
	// Settle is how long to wait after load for web fonts and the CSS CDN.
	Settle time.Duration
	Args   []string

	initOnce      sync.Once
	initErr       error
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func (e *ChromiumEngine) Screenshot(ctx context.Context, html []byte, opts CaptureOptions) ([]byte, error) {
	if opts.Width <= 0 {
		return nil, errors.New("capture width must be positive")
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	var img []byte
	err := e.run(ctx, html,
		chromedp.EmulateViewport(int64(opts.Width), 800, chromedp.EmulateScale(scale)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			box, err := measure(ctx, opts.Selector)
			if err != nil {
				return err
			}
			// grow the viewport to the full element so nothing is cut at the fold
			height := int64(math.Ceil(box.Y + box.Height))
			if err := chromedp.EmulateViewport(int64(opts.Width), height, chromedp.EmulateScale(scale)).Do(ctx); err != nil {
				return err
			}
			if box, err = measure(ctx, opts.Selector); err != nil {
				return err
			}

			params := page.CaptureScreenshot().
				WithCaptureBeyondViewport(true).
				WithFromSurface(true).
				WithClip(&page.Viewport{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Scale: 1})
			switch opts.Format {
			case ImageJPEG:
				params = params.WithFormat(page.CaptureScreenshotFormatJpeg).WithQuality(int64(opts.Quality))
			default:
				params = params.WithFormat(page.CaptureScreenshotFormatPng)
			}
			img, err = params.Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromium screenshot: %w", err)
	}
	return img, nil
}

func (e *ChromiumEngine) PrintPDF(ctx context.Context, html []byte, opts PDFOptions) ([]byte, error) {
	var pdf []byte
	err := e.run(ctx, html, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		pdf, _, err = page.PrintToPDF().
			WithPaperWidth(opts.Page.WidthIn()).
			WithPaperHeight(opts.Page.HeightIn()).
			WithMarginTop(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithMarginRight(0).
			WithPrintBackground(opts.PrintBackground).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("chromium pdf: %w", err)
	}
	return pdf, nil
}

// Snapshot clones the element matching selector with every computed style
// copied inline, so the markup renders the same outside the page.
func (e *ChromiumEngine) Snapshot(ctx context.Context, html []byte, selector string, width int) (DOMSnapshot, error) {
	var snap DOMSnapshot
	err := e.run(ctx, html,
		chromedp.EmulateViewport(int64(width), 800),
		chromedp.Evaluate(fmt.Sprintf(snapshotScript, jsString(selector)), &snap),
	)
	if err != nil {
		return DOMSnapshot{}, fmt.Errorf("chromium snapshot: %w", err)
	}
	if snap.Markup == "" {
		return DOMSnapshot{}, fmt.Errorf("chromium snapshot: %s not found", selector)
	}
	return snap, nil
}

// Close releases Chromium if it was started.
func (e *ChromiumEngine) Close() error {
	if e == nil {
		return nil
	}
	if e.browserCancel != nil {
		e.browserCancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	return nil
}

func (e *ChromiumEngine) run(ctx context.Context, html []byte, actions ...chromedp.Action) error {
	if e == nil {
		return errors.New("chromium engine is nil")
	}
	if err := e.ensureBrowser(); err != nil {
		return err
	}

	tabCtx, cancel := chromedp.NewContext(e.browserCtx)
	defer cancel()

	execCtx, cancelReq := context.WithCancel(tabCtx)
	defer cancelReq()
	go func() {
		select {
		case <-ctx.Done():
			cancelReq()
		case <-execCtx.Done():
		}
	}()
	if e.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		execCtx, cancelTimeout = context.WithTimeout(execCtx, e.Timeout)
		defer cancelTimeout()
	}

	settle := e.Settle
	if settle <= 0 {
		settle = defaultSettle
	}

	load := []chromedp.Action{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`document.fonts.ready.then(() => true)`, nil, awaitPromise),
		chromedp.Sleep(settle),
	}
	return chromedp.Run(execCtx, append(load, actions...)...)
}

func (e *ChromiumEngine) ensureBrowser() error {
	e.initOnce.Do(func() {
		options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		if e.BrowserPath != "" {
			options = append(options, chromedp.ExecPath(e.BrowserPath))
		}
		options = append(options, allocatorOptionsFromArgs(e.Args)...)

		e.allocCtx, e.allocCancel = chromedp.NewExecAllocator(context.Background(), options...)
		e.browserCtx, e.browserCancel = chromedp.NewContext(e.allocCtx)

		// Run with no actions starts the browser; tabs opened from
		// browserCtx afterwards share it.
		if err := chromedp.Run(e.browserCtx); err != nil {
			e.initErr = fmt.Errorf("start chromium: %w", err)
		}
	})
	if e.initErr != nil {
		return e.initErr
	}
	if e.allocCtx == nil || e.browserCtx == nil {
		return errors.New("chromium allocator unavailable")
	}
	return nil
}

func measure(ctx context.Context, selector string) (elementBox, error) {
	var box elementBox
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return {x: 0, y: 0, width: 0, height: 0};
		const r = el.getBoundingClientRect();
		return {x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: Math.max(r.height, el.scrollHeight)};
	})()`, jsString(selector))
	if err := chromedp.Evaluate(expr, &box).Do(ctx); err != nil {
		return elementBox{}, err
	}
	if box.Width <= 0 || box.Height <= 0 {
		return elementBox{}, fmt.Errorf("%s not found or empty", selector)
	}
	return box, nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(s) + "'"
}

func allocatorOptionsFromArgs(args []string) []chromedp.ExecAllocatorOption {
	options := make([]chromedp.ExecAllocatorOption, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimPrefix(strings.TrimSpace(arg), "--")
		if arg == "" {
			continue
		}
		if name, value, ok := strings.Cut(arg, "="); ok {
			options = append(options, chromedp.Flag(name, value))
			continue
		}
		options = append(options, chromedp.Flag(arg, true))
	}
	return options
}

const snapshotScript = `(() => {
	const root = document.querySelector(%s);
	if (!root) return {markup: "", width: 0, height: 0};
	const clone = root.cloneNode(true);
	const src = [root, ...root.querySelectorAll("*")];
	const dst = [clone, ...clone.querySelectorAll("*")];
	src.forEach((el, i) => {
		const cs = getComputedStyle(el);
		let css = "";
		for (let j = 0; j < cs.length; j++) {
			const p = cs[j];
			css += p + ":" + cs.getPropertyValue(p) + ";";
		}
		dst[i].setAttribute("style", css);
		dst[i].removeAttribute("class");
	});
	const r = root.getBoundingClientRect();
	return {markup: clone.outerHTML, width: Math.ceil(r.width), height: Math.ceil(Math.max(r.height, root.scrollHeight))};
})()`
