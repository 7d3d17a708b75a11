package notion

import (
	"testing"
	"time"

	"github.com/jomei/notionapi"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{PlainText: s}}
}

func pageWith(props notionapi.Properties) notionapi.Page {
	return notionapi.Page{Properties: props}
}

func TestPageTitleFallback(t *testing.T) {
	tests := []struct {
		name  string
		props notionapi.Properties
		want  string
	}{
		{
			name: "description first",
			props: notionapi.Properties{
				"Description": &notionapi.TitleProperty{Title: richText("Pool repair")},
			},
			want: "Pool repair",
		},
		{
			name: "period name when description missing",
			props: notionapi.Properties{
				"Period Name": &notionapi.TitleProperty{Title: richText("January 2026")},
			},
			want: "January 2026",
		},
		{
			name: "empty description falls through",
			props: notionapi.Properties{
				"Description": &notionapi.TitleProperty{Title: nil},
				"Name":        &notionapi.TitleProperty{Title: richText("row")},
			},
			want: "row",
		},
		{
			name:  "no title property",
			props: notionapi.Properties{},
			want:  "Untitled",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pageTitle(pageWith(tt.props)); got != tt.want {
				t.Errorf("pageTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageNumber(t *testing.T) {
	p := pageWith(notionapi.Properties{
		"Amount": &notionapi.NumberProperty{Number: 1234.56},
	})
	if got := pageNumber(p, "Amount"); got.String() != "1234.56" {
		t.Errorf("pageNumber() = %s, want 1234.56", got)
	}
	if got := pageNumber(p, "Missing"); !got.IsZero() {
		t.Errorf("pageNumber() for missing property = %s, want 0", got)
	}
}

func TestPageSelectAndText(t *testing.T) {
	p := pageWith(notionapi.Properties{
		"Category": &notionapi.SelectProperty{Select: notionapi.Option{Name: "Utilities"}},
		"Notes":    &notionapi.RichTextProperty{RichText: richText("Net Revenue: 5000")},
	})
	if got := pageSelect(p, "Category"); got != "Utilities" {
		t.Errorf("pageSelect() = %q", got)
	}
	if got := pageSelect(p, "Missing"); got != "" {
		t.Errorf("pageSelect() for missing property = %q, want empty", got)
	}
	if got := pageText(p, "Notes"); got != "Net Revenue: 5000" {
		t.Errorf("pageText() = %q", got)
	}
}

func TestPageDate(t *testing.T) {
	when := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	d := notionapi.Date(when)
	p := pageWith(notionapi.Properties{
		"Date":  &notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}},
		"Empty": &notionapi.DateProperty{Date: nil},
	})
	if got := pageDate(p, "Date"); !got.Equal(when) {
		t.Errorf("pageDate() = %v, want %v", got, when)
	}
	if got := pageDate(p, "Empty"); !got.IsZero() {
		t.Errorf("pageDate() for nil date = %v, want zero", got)
	}
	if got := pageDate(p, "Missing"); !got.IsZero() {
		t.Errorf("pageDate() for missing property = %v, want zero", got)
	}
}

func TestLedgerDB(t *testing.T) {
	c := &Client{dbs: DatabaseIDs{FredLedger: "db-fred", SylvieLedger: "db-sylvie"}}
	if id, err := c.ledgerDB("fred"); err != nil || id != "db-fred" {
		t.Errorf("ledgerDB(fred) = %q, %v", id, err)
	}
	if id, err := c.ledgerDB("sylvie"); err != nil || id != "db-sylvie" {
		t.Errorf("ledgerDB(sylvie) = %q, %v", id, err)
	}
	if _, err := c.ledgerDB("jeff"); err == nil {
		t.Error("ledgerDB(jeff) should fail")
	}
}
