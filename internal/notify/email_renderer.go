package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// RenderedMessage is a digest ready for delivery.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// HTMLEmailRenderer renders digests as HTML emails with a plain text fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

// NewHTMLEmailRenderer creates a renderer with the default digest template.
func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	t := template.Must(template.New("digest").Parse(digestHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

// Render produces an HTML email with plain text alternative.
func (r *HTMLEmailRenderer) Render(d Digest) (*RenderedMessage, error) {
	subject := fmt.Sprintf("IDX %s digest: %d record(s) synced on %s", d.Category.Name, len(d.Records), d.RunDate)

	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, d); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: subject,
		Text:    renderPlainText(d),
		HTML:    htmlBuf.String(),
	}, nil
}

// renderPlainText produces a readable plain text version for email clients
// that don't support HTML.
func renderPlainText(d Digest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("IDX %s corporate actions - %s\n", d.Category.Name, d.RunDate))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	sb.WriteString(fmt.Sprintf("Cutoff: %s\n", d.Cutoff))
	sb.WriteString(fmt.Sprintf("Records synced: %d (rows affected: %d)\n\n", len(d.Records), d.Affected))

	for _, row := range d.Rows() {
		sb.WriteString(row.Symbol + "\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, f := range row.Fields {
			sb.WriteString(fmt.Sprintf("%s: %s\n", f.Name, f.Value))
		}
		sb.WriteString("\n")
	}

	if d.Commentary != nil {
		if len(d.Commentary.Summary) > 0 {
			sb.WriteString("AI SUMMARY\n")
			sb.WriteString(strings.Repeat("-", 20) + "\n")
			for _, s := range d.Commentary.Summary {
				sb.WriteString(fmt.Sprintf("- %s\n", s))
			}
			sb.WriteString("\n")
		}

		if len(d.Commentary.Notable) > 0 {
			sb.WriteString("NOTABLE ACTIONS\n")
			sb.WriteString(strings.Repeat("-", 20) + "\n")
			for _, n := range d.Commentary.Notable {
				sb.WriteString(fmt.Sprintf("- [%s] %s\n", n.Symbol, n.Details))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
