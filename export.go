package socialmuse

import (
	"strings"
	"time"
)

const exportSeparator = "-----------------------------"

// ExportText serializes the posts of r as a plain-text block per post.
// The output depends only on r.
func ExportText(r CampaignResult) string {
	var b strings.Builder
	for i, p := range r.Posts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("PLATFORM: " + string(p.Platform) + "\n")
		b.WriteString("CONTENT: " + p.Content + "\n")
		b.WriteString("HASHTAGS: " + strings.Join(p.Hashtags, ", ") + "\n")
		b.WriteString(exportSeparator + "\n")
	}
	return b.String()
}

// ExportFilename names the export file after the given date.
func ExportFilename(now time.Time) string {
	return "socialmuse-campaign-" + now.Format("2006-01-02") + ".txt"
}

// CopyText is the clipboard text of one post: the content, a blank line,
// and the hashtags prefixed with '#'.
func CopyText(p SocialPost) string {
	tags := make([]string, len(p.Hashtags))
	for i, t := range p.Hashtags {
		tags[i] = "#" + strings.TrimLeft(t, "#")
	}
	return p.Content + "\n\n" + strings.Join(tags, " ")
}
