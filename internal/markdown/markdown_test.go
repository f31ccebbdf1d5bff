package markdown

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/leafnote/internal/models"
)

func TestExport(t *testing.T) {
	got := string(Export("Work", []models.Note{
		{Text: "buy milk", Checked: true},
		{Text: "call\nBob"},
	}))
	want := "# Work\n\n- [x] buy milk\n- [ ] call Bob\n"
	if got != want {
		t.Errorf("Export = %q, want %q", got, want)
	}

	if got := string(Export("", nil)); got != "" {
		t.Errorf("empty export = %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	notes := []models.Note{
		{Text: "buy milk", Checked: true},
		{Text: "write `code` and *emphasis*"},
		{Text: "foo_bar_baz to *x*"},
		{Text: "<b>bold</b> tag &amp; entity"},
		{Text: "see [docs](http://example.com) \\ backslash"},
		{Text: "[x] literal box", Checked: true},
		{Text: "# not a heading"},
	}
	res, err := Parse(Export("Groceries & <More>", notes))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Title != "Groceries & <More>" {
		t.Errorf("title = %q", res.Title)
	}
	if diff := cmp.Diff(notes, res.Page.Notes); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_MultiLineItem(t *testing.T) {
	res, err := Parse([]byte("- [ ] first line\n  continues *here*\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []models.Note{{Text: "first line continues *here*"}}
	if diff := cmp.Diff(want, res.Page.Notes); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_FrontmatterAndPlainItems(t *testing.T) {
	input := []byte("---\ntitle: Errands\n---\n# Ignored heading\n\n* post office\n- [X] bank\n\nSome prose.\n")
	res, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Title != "Errands" {
		t.Errorf("title = %q, want Errands", res.Title)
	}
	want := []models.Note{{Text: "post office"}, {Text: "bank", Checked: true}}
	if diff := cmp.Diff(want, res.Page.Notes); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Nested(t *testing.T) {
	res, err := Parse([]byte("- [ ] parent\n  - [x] child\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Title != "" {
		t.Errorf("title = %q, want empty", res.Title)
	}
	want := []models.Note{{Text: "parent"}, {Text: "child", Checked: true}}
	if diff := cmp.Diff(want, res.Page.Notes); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_InvalidFrontmatterFallsBack(t *testing.T) {
	res, err := Parse([]byte("---\n: invalid: yaml: {{{\n---\n- [ ] item\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Page.Notes) != 1 || res.Page.Notes[0].Text != "item" {
		t.Errorf("notes = %+v", res.Page.Notes)
	}
}

func TestParse_NoList(t *testing.T) {
	res, err := Parse([]byte("just text\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Page.Notes == nil || len(res.Page.Notes) != 0 {
		t.Errorf("notes = %#v, want empty non-nil", res.Page.Notes)
	}
}
