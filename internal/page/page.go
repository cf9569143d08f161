package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"elifsite/internal/logger"
	"elifsite/internal/model"
	"elifsite/internal/pricing"
)

//go:embed templates/index.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// CaptureSelector is the element exports snapshot.
const CaptureSelector = "#price-list"

type View struct {
	// Export drops the chat widget and export buttons.
	Export bool
}

type pageData struct {
	School     string
	TermHours  int
	Categories []card
	Export     bool
}

type card struct {
	Name   string
	Theme  model.Theme
	Levels []levelRow
}

type levelRow struct {
	Number       int
	Total        string
	Tuition      string
	DeviceFee    string
	Software     string
	HasDeviceFee bool
}

// Renderer renders the pricing page for one catalog.
type Renderer struct {
	tmpl  *template.Template
	cards []card
}

func NewRenderer(c model.Catalog) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl, cards: buildCards(c)}, nil
}

func buildCards(c model.Catalog) []card {
	cards := make([]card, 0, len(c.Categories))
	for _, cat := range c.Categories {
		cd := card{Name: cat.Name, Theme: cat.Theme}
		for _, lvl := range cat.Levels {
			row := levelRow{
				Number:       lvl.Number,
				Total:        pricing.DollarsCents(lvl.Total()),
				Tuition:      pricing.Dollars(lvl.Tuition),
				DeviceFee:    "Included",
				Software:     pricing.Dollars(lvl.SoftwareFee),
				HasDeviceFee: lvl.DeviceFee > 0,
			}
			if row.HasDeviceFee {
				row.DeviceFee = pricing.Dollars(lvl.DeviceFee)
			}
			cd.Levels = append(cd.Levels, row)
		}
		cards = append(cards, cd)
	}
	return cards
}

func (r *Renderer) Render(w io.Writer, v View) error {
	return r.tmpl.Execute(w, pageData{
		School:     pricing.SchoolName,
		TermHours:  pricing.TermHours,
		Categories: r.cards,
		Export:     v.Export,
	})
}

// HTML renders the page into memory.
func (r *Renderer) HTML(v View) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type Handler struct {
	renderer *Renderer
	log      logger.Logger
}

func NewHandler(r *Renderer, lggr logger.Logger) *Handler {
	return &Handler{renderer: r, log: lggr.Named("page")}
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	body, err := h.renderer.HTML(View{})
	if err != nil {
		h.log.Errorw("render page failed", "err", err)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Index)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
}
