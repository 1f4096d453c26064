// Package report renders advisory results as Markdown cards and as
// standalone HTML pages.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/mediguide-lk/mediguide/internal/advisory"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Markdown renders a result as a Markdown card.
func Markdown(res *advisory.Result) string {
	var b strings.Builder
	writeResult(&b, res)
	return b.String()
}

// MarkdownAll renders several results separated by rules.
func MarkdownAll(results []*advisory.Result) string {
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		writeResult(&b, res)
	}
	return b.String()
}

// HTML renders a result as a complete HTML page.
func HTML(res *advisory.Result) (string, error) {
	return page(titleOf(res), Markdown(res))
}

// HTMLAll renders several results into one HTML page.
func HTMLAll(title string, results []*advisory.Result) (string, error) {
	return page(title, MarkdownAll(results))
}

func page(title, markdown string) (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	var out bytes.Buffer
	err := pageTemplate.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(body.String())})
	if err != nil {
		return "", fmt.Errorf("executing page template: %w", err)
	}
	return out.String(), nil
}

func titleOf(res *advisory.Result) string {
	if res == nil {
		return "MediGuide"
	}
	switch res.Kind {
	case advisory.KindMedicineLookup:
		return "Medicine: " + res.Query
	case advisory.KindSymptomAnalysis:
		return "Symptom analysis"
	case advisory.KindEmergencyAid:
		return "Emergency: " + res.Query
	case advisory.KindInteractionCheck:
		return "Interaction check"
	case advisory.KindDosageSchedule:
		return "Dosage schedule"
	case advisory.KindImageIdentify:
		return "Identified medicine"
	case advisory.KindPharmacyLookup:
		return "Nearby pharmacies"
	}
	return "MediGuide"
}

func writeResult(b *strings.Builder, res *advisory.Result) {
	if res == nil {
		return
	}
	switch {
	case res.Medicine != nil:
		m := res.Medicine
		fmt.Fprintf(b, "## %s\n\n%s\n\n", esc(m.MedicineName), esc(m.Description))
		field(b, "Uses", m.Uses)
		field(b, "How to use", m.HowToUse)
		field(b, "Price range", m.PriceRange)
		list(b, "Side effects", m.SideEffects)
		field(b, "Food interactions", m.FoodInteractions)
		fmt.Fprintf(b, "> %s\n", esc(m.Disclaimer))

	case res.Symptoms != nil:
		s := res.Symptoms
		fmt.Fprintf(b, "## Symptom analysis\n\n**Urgency:** %s\n\n", s.Urgency)
		list(b, "Possible conditions", s.PossibleConditions)
		field(b, "Advice", s.Advice)
		list(b, "Suggested medicines", s.SuggestedMeds)

	case res.Emergency != nil:
		e := res.Emergency
		fmt.Fprintf(b, "## %s\n\n**Call %s**\n\n", esc(e.Situation), esc(e.EmergencyContact))
		if e.ImageRef != "" {
			fmt.Fprintf(b, "![%s](%s)\n\n", esc(e.Situation), e.ImageRef)
		}
		numbered(b, "Do this now", e.Actions)
		list(b, "Avoid", e.Avoid)
		field(b, "Tip", e.Tip)
		if e.ProfessionalAdvice != "" && e.ProfessionalAdvice != e.Tip {
			field(b, "Professional advice", e.ProfessionalAdvice)
		}
		fmt.Fprintf(b, "_Source: %s_\n", e.Source)

	case res.Interaction != nil:
		in := res.Interaction
		fmt.Fprintf(b, "## Interaction check: %s\n\n**Risk level:** %s\n\n", esc(res.Query), in.RiskLevel)
		field(b, "Summary", in.Summary)
		field(b, "Details", in.Details)

	case res.Schedule != nil:
		s := res.Schedule
		fmt.Fprintf(b, "## Dosage schedule: %s\n\n", esc(res.Query))
		b.WriteString("| Time | Medicines |\n|---|---|\n")
		for _, row := range []struct {
			name  string
			items []string
		}{{"Morning", s.Morning}, {"Afternoon", s.Afternoon}, {"Evening", s.Evening}, {"Night", s.Night}} {
			items := "-"
			if len(row.items) > 0 {
				items = esc(strings.Join(row.items, ", "))
			}
			fmt.Fprintf(b, "| %s | %s |\n", row.name, strings.ReplaceAll(items, "|", "\\|"))
		}
		b.WriteString("\n")
		field(b, "Notes", s.Notes)

	case res.Kind == advisory.KindImageIdentify:
		fmt.Fprintf(b, "## Identified medicine\n\n%s\n", esc(res.Identified))

	case res.Kind == advisory.KindPharmacyLookup:
		b.WriteString("## Nearby pharmacies\n\n")
		if len(res.Pharmacies) == 0 {
			b.WriteString("No pharmacies found nearby.\n")
		}
		for _, p := range res.Pharmacies {
			fmt.Fprintf(b, "- [%s](%s)\n", esc(p.Name), p.URI)
		}
	}
}

func field(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "**%s:** %s\n\n", label, esc(value))
}

func list(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n\n", label)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", esc(it))
	}
	b.WriteString("\n")
}

func numbered(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n\n", label)
	for i, it := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, esc(it))
	}
	b.WriteString("\n")
}

// esc neutralises Markdown control characters in generated text.
var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
)

func esc(s string) string {
	return mdEscaper.Replace(strings.TrimSpace(s))
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; color: #1f2937; }
h2 { color: #047857; border-bottom: 1px solid #d1fae5; padding-bottom: .25rem; }
blockquote { border-left: 4px solid #f59e0b; margin: 1rem 0; padding: .25rem 1rem; background: #fffbeb; }
table { border-collapse: collapse; } td, th { border: 1px solid #e5e7eb; padding: .35rem .75rem; }
img { max-width: 100%; border-radius: .75rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))
