package notion

import (
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

// Property readers. Notion omits empty properties and types vary across
// historical rows, so every reader is nil-safe and falls back to a zero value.

func plainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}

// pageTitle extracts the row title, trying the property names used across
// the databases before giving up.
func pageTitle(p notionapi.Page) string {
	for _, name := range []string{"Description", "Period Name", "Name"} {
		if prop, ok := p.Properties[name].(*notionapi.TitleProperty); ok {
			if s := plainText(prop.Title); s != "" {
				return s
			}
		}
	}
	return "Untitled"
}

func pageNumber(p notionapi.Page, name string) decimal.Decimal {
	if prop, ok := p.Properties[name].(*notionapi.NumberProperty); ok {
		return decimal.NewFromFloat(prop.Number)
	}
	return decimal.Zero
}

func pageSelect(p notionapi.Page, name string) string {
	if prop, ok := p.Properties[name].(*notionapi.SelectProperty); ok {
		return prop.Select.Name
	}
	return ""
}

func pageText(p notionapi.Page, name string) string {
	if prop, ok := p.Properties[name].(*notionapi.RichTextProperty); ok {
		return plainText(prop.RichText)
	}
	return ""
}

func pageDate(p notionapi.Page, name string) time.Time {
	prop, ok := p.Properties[name].(*notionapi.DateProperty)
	if !ok || prop.Date == nil || prop.Date.Start == nil {
		return time.Time{}
	}
	return time.Time(*prop.Date.Start)
}

// Property writers, used when appending rows.

func titleProp(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Title: []notionapi.RichText{{Text: &notionapi.Text{Content: s}}},
	}
}

func numberProp(d decimal.Decimal) notionapi.NumberProperty {
	f, _ := d.Float64()
	return notionapi.NumberProperty{Number: f}
}

func selectProp(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
}

func richTextProp(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: s}}},
	}
}

func dateProp(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}
