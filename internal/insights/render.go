package insights

import (
	"embed"
	"fmt"
	"io"
	"text/template"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"coinpal/internal/models"
)

//go:embed templates/*.md
var templates embed.FS

const notAvailable = "N/A"

var funcs = template.FuncMap{
	"usd":   formatUSD,
	"pct":   formatPercent,
	"num":   formatNumber,
	"deref": deref,
}

var insightsTemplate = template.Must(
	template.New("insights.md").Funcs(funcs).ParseFS(templates, "templates/*.md"),
)

// RenderMarkdown writes in as a markdown report. Optional sections that the
// service did not send are left out.
func RenderMarkdown(w io.Writer, in *models.PortfolioInsights) error {
	if err := insightsTemplate.ExecuteTemplate(w, "insights.md", in); err != nil {
		return fmt.Errorf("render insights: %w", err)
	}
	return nil
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), true
	case *float64:
		if x == nil {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(*x), true
	default:
		return decimal.Zero, false
	}
}

// formatUSD renders v as dollars with cent precision, e.g. $1,234.50.
func formatUSD(v any) string {
	d, ok := toDecimal(v)
	if !ok {
		return notAvailable
	}
	cents := d.Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

func formatPercent(v any) string {
	d, ok := toDecimal(v)
	if !ok {
		return notAvailable
	}
	return d.StringFixed(2) + "%"
}

func formatNumber(v any) string {
	d, ok := toDecimal(v)
	if !ok {
		return notAvailable
	}
	return d.Round(8).String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
