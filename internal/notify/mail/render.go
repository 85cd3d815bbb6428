package mail

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/dailydigest/digestd/internal/digest"
)

var htmlTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
  .header { background-color: #4A90E2; color: white; padding: 20px; border-radius: 5px; margin-bottom: 20px; }
  .title { font-size: 24px; font-weight: bold; margin-bottom: 10px; }
  .date { font-size: 14px; opacity: 0.9; }
  .content { background-color: #f9f9f9; padding: 20px; border-radius: 5px; margin-bottom: 20px; }
  .summary { white-space: pre-wrap; margin: 15px 0; }
  .link-button { display: inline-block; background-color: #4A90E2; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; font-weight: bold; }
  .footer { text-align: center; font-size: 12px; color: #888; margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; }
</style>
</head>
<body>
<div class="header">
  <div class="title">&#128218; Your Daily Reading</div>
  <div class="date">{{.Date}}</div>
</div>
<div class="content">
  {{if .Title}}<h2>{{.Title}}</h2>{{end}}
  <div class="summary">{{.Body}}</div>
  {{if .URL}}<p><a href="{{.URL}}" class="link-button">Read Full Article</a></p>{{end}}
</div>
<div class="footer">
  <p>This is your automated daily reading digest.</p>
</div>
</body>
</html>
`))

type templateData struct {
	Date  string
	Title string
	URL   string
	Body  string
}

func renderHTML(msg digest.Message, date string) string {
	var sb strings.Builder
	err := htmlTemplate.Execute(&sb, templateData{
		Date:  date,
		Title: msg.Title,
		URL:   msg.URL,
		Body:  msg.Body,
	})
	if err != nil {
		// Template data is plain strings; execution cannot realistically
		// fail, but the plain part still goes out if it does.
		return ""
	}
	return sb.String()
}

func renderPlain(msg digest.Message, date string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Your Daily Reading - %s\n\n", date)
	if msg.Title != "" {
		fmt.Fprintf(&sb, "%s\n\n", msg.Title)
	}
	sb.WriteString(msg.Body)
	sb.WriteString("\n")
	if msg.URL != "" {
		fmt.Fprintf(&sb, "\nRead the full article: %s\n", msg.URL)
	}
	sb.WriteString("\n---\nThis is your automated daily reading digest.\n")
	return sb.String()
}
