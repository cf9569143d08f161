package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"elifsite/internal/logger"
	"elifsite/internal/observability"
	"elifsite/internal/page"
)

const (
	ViewportWidth = 1400
	PixelRatio    = 2
	JPEGQuality   = 100
	PageMarginMM  = 10
)

type Engine interface {
	Screenshot(ctx context.Context, html []byte, opts CaptureOptions) ([]byte, error)
	PrintPDF(ctx context.Context, html []byte, opts PDFOptions) ([]byte, error)
	Snapshot(ctx context.Context, html []byte, selector string, width int) (DOMSnapshot, error)
}

// PageSource renders the pricing page. *page.Renderer implements it.
type PageSource interface {
	HTML(v page.View) ([]byte, error)
}

// Error carries the format that failed so callers can show its message.
type Error struct {
	Format Format
	Err    error
}

func (e *Error) Error() string { return fmt.Sprintf("export %s: %v", e.Format, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

type Service struct {
	engine  Engine
	source  PageSource
	log     logger.Logger
	metrics *observability.Metrics
}

func NewService(engine Engine, source PageSource, lggr logger.Logger, metrics *observability.Metrics) *Service {
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	return &Service{engine: engine, source: source, log: lggr.Named("export"), metrics: metrics}
}

// Export renders the price list into f. Every failure comes back as *Error.
func (s *Service) Export(ctx context.Context, f Format) (Document, error) {
	start := time.Now()
	body, err := s.render(ctx, f)
	if err != nil {
		s.metrics.Exports.WithLabelValues(string(f), "error").Inc()
		s.log.Errorw("export failed", "format", f, "err", err)
		return Document{}, &Error{Format: f, Err: err}
	}
	s.metrics.Exports.WithLabelValues(string(f), "ok").Inc()
	s.log.Infow("export done", "format", f, "bytes", len(body), "took", time.Since(start))
	return Document{Format: f, Filename: f.Filename(), ContentType: f.ContentType(), Body: body}, nil
}

func (s *Service) render(ctx context.Context, f Format) ([]byte, error) {
	html, err := s.source.HTML(page.View{Export: true})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	switch f {
	case FormatJPEG:
		return s.engine.Screenshot(ctx, html, CaptureOptions{
			Selector: page.CaptureSelector,
			Width:    ViewportWidth,
			Scale:    PixelRatio,
			Format:   ImageJPEG,
			Quality:  JPEGQuality,
		})
	case FormatPDF, FormatAI:
		return s.pdf(ctx, html)
	case FormatSVG:
		snap, err := s.engine.Snapshot(ctx, html, page.CaptureSelector, ViewportWidth)
		if err != nil {
			return nil, err
		}
		out, err := BuildSVG(snap)
		if err != nil {
			return nil, err
		}
		if err := wellFormed(out); err != nil {
			return nil, fmt.Errorf("svg is not well-formed: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// pdf rasterizes the price list, then prints it centred on one A4 page.
func (s *Service) pdf(ctx context.Context, html []byte) ([]byte, error) {
	img, err := s.engine.Screenshot(ctx, html, CaptureOptions{
		Selector: page.CaptureSelector,
		Width:    ViewportWidth,
		Scale:    PixelRatio,
		Format:   ImagePNG,
	})
	if err != nil {
		return nil, err
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}

	place := FitContain(A4, PageMarginMM, float64(cfg.Width), float64(cfg.Height))
	return s.engine.PrintPDF(ctx, sheetHTML(A4, place, img), PDFOptions{Page: A4, PrintBackground: true})
}

func sheetHTML(p PageSize, place Placement, img []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, `<!DOCTYPE html><html><head><meta charset="utf-8"><style>`+
		`@page{size:%.3fmm %.3fmm;margin:0}`+
		`html,body{margin:0;padding:0;width:%.3fmm;height:%.3fmm;position:relative;overflow:hidden}`+
		`img{position:absolute;left:%.3fmm;top:%.3fmm;width:%.3fmm;height:%.3fmm}`+
		`</style></head><body><img alt="" src="data:image/png;base64,`,
		p.WidthMM, p.HeightMM, p.WidthMM, p.HeightMM,
		place.X, place.Y, place.Width, place.Height)
	b.WriteString(base64.StdEncoding.EncodeToString(img))
	b.WriteString(`"></body></html>`)
	return b.Bytes()
}
