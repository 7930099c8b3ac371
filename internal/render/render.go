// Package render converts chat reply text into safe presentation
// segments. Reply text is never interpreted as markup; every segment is
// emitted as escaped content, so a reply containing HTML renders as the
// literal text.
package render

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"
)

// Kind identifies the presentation type of a segment
type Kind string

const (
	// KindText is a plain text run
	KindText Kind = "text"
	// KindBreak is an explicit line break
	KindBreak Kind = "break"
	// KindBold is an emphasized text span (**...**)
	KindBold Kind = "bold"
	// KindLink is a bare URL rendered as an anchor
	KindLink Kind = "link"
	// KindActionLink is a **[label](url)** pattern rendered as a button
	KindActionLink Kind = "action_link"
	// KindEmail is an address rendered as a mailto anchor
	KindEmail Kind = "email"
	// KindPhone is a phone number rendered as emphasized text, not a link
	KindPhone Kind = "phone"
)

// Segment is one rendered unit of a chat message
type Segment struct {
	Kind  Kind
	Text  string
	Label string
	URL   string
}

// Recognition patterns, matched in precedence order. A lower-precedence
// pattern never claims text inside an already-claimed span, so the URL
// inside an action link is not rendered a second time.
var (
	reActionLink = regexp.MustCompile(`\*\*\[([^\]]+)\]\(([^)]+)\)\*\*`)
	reURL        = regexp.MustCompile(`https?://[^\s]+`)
	reEmail      = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	rePhone      = regexp.MustCompile(`\(?\d{2}\)?\s?\d{4,5}-?\d{4}`)
	reBold       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

type match struct {
	start, end int
	seg        Segment
}

// Render parses text into an ordered segment list. It is a pure
// function: the same input always yields the same segments, and
// malformed markers degrade to literal text.
func Render(text string) []Segment {
	var matches []match

	claim := func(start, end int, seg Segment) {
		for _, m := range matches {
			if start < m.end && m.start < end {
				return
			}
		}
		matches = append(matches, match{start: start, end: end, seg: seg})
	}

	for _, idx := range reActionLink.FindAllStringSubmatchIndex(text, -1) {
		claim(idx[0], idx[1], Segment{
			Kind:  KindActionLink,
			Label: text[idx[2]:idx[3]],
			URL:   SanitizeURL(text[idx[4]:idx[5]]),
		})
	}
	for _, idx := range reURL.FindAllStringIndex(text, -1) {
		raw := text[idx[0]:idx[1]]
		claim(idx[0], idx[1], Segment{Kind: KindLink, Text: raw, URL: SanitizeURL(raw)})
	}
	for _, idx := range reEmail.FindAllStringIndex(text, -1) {
		claim(idx[0], idx[1], Segment{Kind: KindEmail, Text: text[idx[0]:idx[1]]})
	}
	for _, idx := range rePhone.FindAllStringIndex(text, -1) {
		claim(idx[0], idx[1], Segment{Kind: KindPhone, Text: text[idx[0]:idx[1]]})
	}
	for _, idx := range reBold.FindAllStringSubmatchIndex(text, -1) {
		claim(idx[0], idx[1], Segment{Kind: KindBold, Text: text[idx[2]:idx[3]]})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	var segs []Segment
	pos := 0
	for _, m := range matches {
		if m.start > pos {
			segs = appendLiteral(segs, text[pos:m.start])
		}
		segs = append(segs, m.seg)
		pos = m.end
	}
	if pos < len(text) {
		segs = appendLiteral(segs, text[pos:])
	}

	return segs
}

// appendLiteral splits a literal run on newlines, emitting break segments
func appendLiteral(segs []Segment, text string) []Segment {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			segs = append(segs, Segment{Kind: KindBreak})
		}
		if line != "" {
			segs = append(segs, Segment{Kind: KindText, Text: line})
		}
	}
	return segs
}

// SanitizeURL allows only http, https, or root-relative destinations;
// anything else, a javascript: scheme included, collapses to "#"
func SanitizeURL(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(cleaned), "javascript:") {
		return "#"
	}
	if strings.HasPrefix(cleaned, "http://") ||
		strings.HasPrefix(cleaned, "https://") ||
		strings.HasPrefix(cleaned, "/") {
		return cleaned
	}
	return "#"
}

// WriteHTML emits the segments as escaped HTML. All text and attribute
// values pass through html.EscapeString; segment URLs have already been
// sanitized by Render.
func WriteHTML(w io.Writer, segs []Segment) error {
	for _, seg := range segs {
		var err error
		switch seg.Kind {
		case KindText:
			_, err = io.WriteString(w, html.EscapeString(seg.Text))
		case KindBreak:
			_, err = io.WriteString(w, "<br>")
		case KindBold:
			_, err = fmt.Fprintf(w, "<strong>%s</strong>", html.EscapeString(seg.Text))
		case KindLink:
			_, err = fmt.Fprintf(w, `<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
				html.EscapeString(seg.URL), html.EscapeString(seg.Text))
		case KindActionLink:
			_, err = fmt.Fprintf(w, `<a class="btn btn-primary btn-sm" href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
				html.EscapeString(seg.URL), html.EscapeString(seg.Label))
		case KindEmail:
			_, err = fmt.Fprintf(w, `<a href="mailto:%s">%s</a>`,
				html.EscapeString(seg.Text), html.EscapeString(seg.Text))
		case KindPhone:
			_, err = fmt.Fprintf(w, "<strong>%s</strong>", html.EscapeString(seg.Text))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// HTML renders text straight to an HTML string
func HTML(text string) string {
	var b strings.Builder
	_ = WriteHTML(&b, Render(text))
	return b.String()
}

// Plain flattens segments back to display text, used by terminal surfaces
func Plain(segs []Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		switch seg.Kind {
		case KindBreak:
			b.WriteString("\n")
		case KindActionLink:
			fmt.Fprintf(&b, "%s (%s)", seg.Label, seg.URL)
		default:
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}
