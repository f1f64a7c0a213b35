package ingest

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	styleBlock  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)

	// markupTag matches tags of the elements feeds use to format text.
	markupTag = regexp.MustCompile(`(?i)</?(?:a|abbr|article|aside|b|blockquote|br|center|cite|code|dd|del|div|dl|dt|em|figcaption|figure|font|footer|h[1-6]|header|hr|i|img|ins|kbd|li|main|mark|nav|ol|p|picture|pre|q|s|section|small|source|span|strike|strong|sub|sup|table|tbody|td|tfoot|th|thead|time|tr|tt|u|ul|video)\b[^<>]*>`)
)

// plainText strips markup and entities from feed text and collapses whitespace.
// A '<' that does not open a formatting tag is kept as literal text, so
// "Why <script> tags break pages" survives intact.
func plainText(s string) string {
	s = scriptBlock.ReplaceAllString(s, " ")
	s = styleBlock.ReplaceAllString(s, " ")
	s = htmlComment.ReplaceAllString(s, " ")
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(escapeStrayTags(s)))
		if err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// escapeStrayTags entity-encodes every '<' outside a markupTag match.
func escapeStrayTags(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range markupTag.FindAllStringIndex(s, -1) {
		b.WriteString(strings.ReplaceAll(s[last:loc[0]], "<", "&lt;"))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ReplaceAll(s[last:], "<", "&lt;"))
	return b.String()
}
