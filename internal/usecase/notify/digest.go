package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"news-notifier/internal/domain/entity"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlDigest = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/digest.html.tmpl"))
	textDigest = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/digest.txt.tmpl"))
)

// DigestEntry is one article line in a digest. Category and Keyword name the
// rule that fired and may be empty.
type DigestEntry struct {
	NotificationID int64
	Title          string
	URL            string
	Category       string
	Keyword        string
}

// Digest groups a user's pending notifications.
type Digest struct {
	Recipient entity.Recipient
	Entries   []DigestEntry
}

type digestView struct {
	Subject string
	Name    string
	Intro   string
	Entries []DigestEntry
}

// Subject returns the email subject line.
func (d Digest) Subject() string {
	if len(d.Entries) == 1 {
		return "1 new article matching your interests"
	}
	return fmt.Sprintf("%d new articles matching your interests", len(d.Entries))
}

// NotificationIDs returns the ids of the notifications included in the digest.
func (d Digest) NotificationIDs() []int64 {
	ids := make([]int64, 0, len(d.Entries))
	for _, e := range d.Entries {
		ids = append(ids, e.NotificationID)
	}
	return ids
}

// Render produces the HTML and plain-text bodies.
func (d Digest) Render() (Email, error) {
	if len(d.Entries) == 0 {
		return Email{}, ErrEmptyDigest
	}

	name := strings.TrimSpace(d.Recipient.DisplayName)
	if name == "" {
		name = "there"
	}
	view := digestView{
		Subject: d.Subject(),
		Name:    name,
		Intro:   "Here is what we found for you since your last digest:",
		Entries: d.Entries,
	}

	var html, text bytes.Buffer
	if err := htmlDigest.Execute(&html, view); err != nil {
		return Email{}, fmt.Errorf("render html digest: %w", err)
	}
	if err := textDigest.Execute(&text, view); err != nil {
		return Email{}, fmt.Errorf("render text digest: %w", err)
	}

	return Email{
		To:      d.Recipient.Email,
		Subject: view.Subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
