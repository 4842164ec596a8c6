package markup

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const rscTitleFootnote = `<span class="title_heading">Rationale for the sluggish oxidative addition of aryl halides to Au(<span class="small_caps">I</span>)<a title="Electronic supplementary information (ESI) available. CCDC 891201–891204 and 964933. For ESI and crystallographic data in CIF or other electronic format see DOI: 10.1039/c3cc48914k" href="#fn1">†</a></span>`

func TestCleanHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trailing footnote after nested small caps",
			in:   rscTitleFootnote,
			want: `<span class="title_heading">Rationale for the sluggish oxidative addition of aryl halides to Au(I)</span>`,
		},
		{
			name: "no anchor is a no-op",
			in:   `<span class="title_heading">Plain <i>title</i></span>`,
			want: `<span class="title_heading">Plain <i>title</i></span>`,
		},
		{
			name: "leading anchor is preserved",
			in:   `<span><a href="#fn1">†</a> Title text</span>`,
			want: `<span><a href="#fn1">†</a> Title text</span>`,
		},
		{
			name: "anchor in the middle is preserved",
			in:   `<span>Part one<a href="#fn1">*</a> and part two</span>`,
			want: `<span>Part one<a href="#fn1">*</a> and part two</span>`,
		},
		{
			name: "trailing link with real text is preserved",
			in:   `<span>See the <a href="/en/journals">journal page</a></span>`,
			want: `<span>See the <a href="/en/journals">journal page</a></span>`,
		},
		{
			name: "several trailing markers",
			in:   `<span>Title<a href="#fn1">†</a><a href="#fn2">‡</a></span>`,
			want: `<span>Title</span>`,
		},
		{
			name: "marker inside superscript with trailing whitespace",
			in:   "<span>Title<sup><a href=\"#fn1\">a</a></sup>\n  </span>",
			want: "<span>Title<sup></sup>\n  </span>",
		},
		{
			name: "anchor without wrapper",
			in:   `Bare title<a href="#fn1">1</a>`,
			want: `Bare title`,
		},
		{
			name: "empty anchor is not a marker",
			in:   `<span>Title<a id="top"></a></span>`,
			want: `<span>Title<a id="top"></a></span>`,
		},
	}

	cleaner := DefaultCleaner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := cleaner.CleanHTML(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			again, err := cleaner.CleanHTML(got)
			require.NoError(t, err)
			require.Equal(t, got, again, "cleaning must be idempotent")
		})
	}
}

func TestCleanHTMLEmptyFragment(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   \n"} {
		_, err := DefaultCleaner().CleanHTML(in)
		require.ErrorIs(t, err, ErrEmptyFragment)
	}
}

func TestCleanKeepsStylingWithoutUnwrap(t *testing.T) {
	t.Parallel()

	got, err := NewCleaner().CleanHTML(rscTitleFootnote)
	require.NoError(t, err)
	require.Equal(t,
		`<span class="title_heading">Rationale for the sluggish oxidative addition of aryl halides to Au(<span class="small_caps">I</span>)</span>`,
		got,
	)
}

func TestCleanSelectionThenText(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div class="row"><h3 class="title">` + rscTitleFootnote + `</h3><p>other</p></div>`))
	require.NoError(t, err)

	title := DefaultCleaner().Clean(doc.Find("h3.title"))
	require.Equal(t, "Rationale for the sluggish oxidative addition of aryl halides to Au(I)", Text(title))
	require.Equal(t, "other", Text(doc.Find("p")))
}

func TestTrimTrailingAnchorsCount(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<p>Title<sup><a>†</a></sup><a>‡</a></p>`))
	require.NoError(t, err)

	node := doc.Find("p").Nodes[0]
	require.Equal(t, 2, TrimTrailingAnchors(node))
	require.Equal(t, 0, TrimTrailingAnchors(node))
}

func TestIsFootnoteMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{text: "†", want: true},
		{text: " ‡ ", want: true},
		{text: "†‡", want: true},
		{text: "*", want: true},
		{text: "a", want: true},
		{text: "12", want: true},
		{text: "", want: false},
		{text: "PDF", want: false},
		{text: "†††††", want: false},
		{text: "a)", want: false},
		{text: "journal page", want: false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, isFootnoteMarker(tt.text), "text %q", tt.text)
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapses whitespace", in: "  Chem.\n\t Commun.  ", want: "Chem. Commun."},
		{name: "decodes entities", in: "Dalton &amp; Trans.", want: "Dalton & Trans."},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, CleanText(tt.in))
		})
	}

	require.Equal(t, "", Text(nil))
}
