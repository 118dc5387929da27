package webui

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer renders one page template inside the shared layout
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page with money and time helpers bound to lang and loc
func NewRenderer(lang string, loc *time.Location) (*Renderer, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Indonesian
	}
	funcs := templateFuncs(message.NewPrinter(tag), loc)

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		t, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", f)
		}
		r.pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("template %s not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

func templateFuncs(p *message.Printer, loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return p.Sprintf("Rp %v", number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(2)))
		},
		"datetime": func(t time.Time) string {
			return t.In(loc).Format("2006-01-02 15:04:05")
		},
		"lowstock": func(stock, threshold int) bool {
			return stock < threshold
		},
	}
}
