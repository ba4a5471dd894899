package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// RenderOpts configures Render's output, the renderer-side counterpart of
// the engine-side options diagfmt.PrettyOpts holds in the teacher: whether
// to color the output and whether to print a diagnostic's Notes.
type RenderOpts struct {
	Color     bool
	ShowNotes bool
}

// Render writes bag's diagnostics (call bag.Sort() first for a stable
// file/span/severity order) in the one-line-plus-notes form the driver's CLI
// output uses. Unlike the teacher's diagfmt.Pretty, this has no FileSet to
// resolve a Span into line/column text or print a source-line preview with
// an underline - source.Span here is only a (File, Start, End) byte range
// with no backing file content (see internal/source's doc comment), so the
// span itself is rendered as "file:start-end" rather than "file:line:col".
func Render(w io.Writer, bag *Bag, opts RenderOpts) {
	var (
		errorColor   = color.New(color.FgRed, color.Bold)
		warningColor = color.New(color.FgYellow, color.Bold)
		infoColor    = color.New(color.FgCyan, color.Bold)
		codeColor    = color.New(color.FgMagenta)
		siteColor    = color.New(color.FgWhite, color.Bold)
	)

	prev := color.NoColor
	defer func() { color.NoColor = prev }()
	color.NoColor = !opts.Color

	codeWidth := 0
	for _, d := range bag.Items() {
		if w := runewidth.StringWidth(d.Code.String()); w > codeWidth {
			codeWidth = w
		}
	}

	for idx, d := range bag.Items() {
		if idx > 0 {
			fmt.Fprintln(w)
		}

		var sevColored string
		switch d.Severity {
		case SevError:
			sevColored = errorColor.Sprint(d.Severity.String())
		case SevWarning:
			sevColored = warningColor.Sprint(d.Severity.String())
		default:
			sevColored = infoColor.Sprint(d.Severity.String())
		}

		code := runewidth.FillRight(d.Code.String(), codeWidth)
		fmt.Fprintf(w, "%s: %s %s: %s\n", siteColor.Sprint(d.Primary.String()), sevColored, codeColor.Sprint(code), d.Message)

		if d.FuncName != "" {
			fmt.Fprintf(w, "  %s %s at %s\n", infoColor.Sprint("in"), d.FuncName, d.InstrID)
		}

		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(w, "  %s: %s: %s\n", infoColor.Sprint("note"), n.Span.String(), n.Msg)
			}
		}
	}
}
