// Package richtext renders generated post copy as HTML. Model output uses a
// small Markdown subset plus social conventions: bullet lines, emphasis,
// bare links, hashtags, and mentions.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore   = regexp.MustCompile(`__(.+?)__`)
	reItalic           = regexp.MustCompile(`\*([^*\s][^*]*)\*`)
	reItalicUnderscore = regexp.MustCompile(`(^|\s)_([^_]+)_`)
	reLink             = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reBareURL          = regexp.MustCompile(`https?://[^\s<]+[^\s<.,;:!?)]`)
	reHashtag          = regexp.MustCompile(`(^|[^&\w])#(\w+)`)
	reMention          = regexp.MustCompile(`(^|[^\w])@(\w{2,})`)
	reOrderedList      = regexp.MustCompile(`^(\d+)[.)]\s`)
)

var bullets = []string{"- ", "* ", "• ", "– "}

// Post returns a templ.Component that renders post copy as HTML.
func Post(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, content)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of content to buf. Blank lines
// separate paragraphs; single newlines inside a paragraph are kept.
func Render(buf *bytes.Buffer, content string) {
	inList := false
	inOrderedList := false
	inPara := false

	flushPara := func() {
		if inPara {
			buf.WriteString("</p>")
			inPara = false
		}
	}
	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, "\r ")
		if strings.TrimSpace(line) == "" {
			flushPara()
			flushList()
			flushOrderedList()
			continue
		}

		if item, ok := bulletItem(line); ok {
			if !inList {
				flushPara()
				flushOrderedList()
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatInline(item))
			buf.WriteString("</li>")
			continue
		}
		if reOrderedList.MatchString(line) {
			if !inOrderedList {
				flushPara()
				flushList()
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatInline(strings.TrimSpace(reOrderedList.ReplaceAllString(line, ""))))
			buf.WriteString("</li>")
			continue
		}

		if !inPara {
			flushList()
			flushOrderedList()
			buf.WriteString("<p>")
			inPara = true
		} else {
			buf.WriteString("<br/>")
		}
		buf.WriteString(FormatInline(strings.TrimSpace(line)))
	}
	flushPara()
	flushList()
	flushOrderedList()
}

func bulletItem(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	for _, b := range bullets {
		if strings.HasPrefix(trimmed, b) {
			return strings.TrimSpace(trimmed[len(b):]), true
		}
	}
	return "", false
}

// ApplyOutsideTags applies fn only to text segments outside HTML tags,
// so that formatting regexes never touch URLs inside href attributes.
func ApplyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	inAnchor := false
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(applyUnlessAnchor(s, fn, inAnchor))
			break
		}
		if lt > 0 {
			buf.WriteString(applyUnlessAnchor(s[:lt], fn, inAnchor))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		tag := s[lt : lt+gt+1]
		switch {
		case strings.HasPrefix(tag, "<a "):
			inAnchor = true
		case tag == "</a>":
			inAnchor = false
		}
		buf.WriteString(tag)
		s = s[lt+gt+1:]
	}
	return buf.String()
}

// applyUnlessAnchor leaves link text alone so hashtags and mentions are not
// nested inside an existing anchor.
func applyUnlessAnchor(s string, fn func(string) string, inAnchor bool) string {
	if inAnchor {
		return s
	}
	return fn(s)
}

// FormatInline escapes s and applies links, emphasis, hashtags, and mentions.
func FormatInline(s string) string {
	escaped := html.EscapeString(s)
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		return `<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + match[1] + `</a>`
	})
	escaped = ApplyOutsideTags(escaped, func(seg string) string {
		return reBareURL.ReplaceAllStringFunc(seg, func(m string) string {
			href := SafeURL(m)
			if href == "" {
				return m
			}
			return `<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + m + `</a>`
		})
	})
	escaped = ApplyOutsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldUnderscore.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		seg = reItalicUnderscore.ReplaceAllString(seg, "$1<em>$2</em>")
		seg = reHashtag.ReplaceAllString(seg, `$1<span class="hashtag">#$2</span>`)
		seg = reMention.ReplaceAllString(seg, `$1<span class="mention">@$2</span>`)
		return seg
	})
	return escaped
}

// SafeURL validates and sanitizes a URL for use in HTML attributes. Only
// http and https links survive.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Host == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return html.EscapeString(val)
	default:
		return ""
	}
}
