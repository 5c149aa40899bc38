package plotpage

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
)

const pageTemplates = `
{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"></script>
<style>
body { margin: 0; padding: 24px; font-family: system-ui, sans-serif; background: {{.Theme.Background}}; color: {{.Theme.TextPrimary}}; }
header { border-bottom: 1px solid {{.Theme.Border}}; margin-bottom: 24px; }
header small { color: {{.Theme.TextMuted}}; }
.stats { display: flex; gap: 16px; margin-bottom: 24px; }
.stat { background: {{.Theme.Surface}}; border: 1px solid {{.Theme.Border}}; padding: 12px 16px; }
.stat .value { font-size: 1.4em; font-weight: 600; }
.stat .up { color: {{.Theme.Error}}; }
.stat .down { color: {{.Theme.Success}}; }
section { background: {{.Theme.Surface}}; border: 1px solid {{.Theme.Border}}; padding: 16px; margin-bottom: 24px; }
section .hint { color: {{.Theme.TextMuted}}; font-size: 0.9em; }
.echart-box { width: 100%; }
{{.ExtraCSS}}
</style>
</head>
<body>
<header>
<small>{{.ProjectName}}</small>
<h1>{{.Title}}</h1>
{{if .Description}}<p>{{.Description}}</p>{{end}}
</header>
{{if .Stats}}<div class="stats">
{{range .Stats}}<div class="stat"><div>{{.Label}}</div><div class="value {{.Trend}}">{{.Value}}</div></div>
{{end}}</div>{{end}}
{{.Content}}
</body>
</html>
{{end}}

{{define "section"}}<section>
<h2>{{.Title}}</h2>
{{if .Subtitle}}<p>{{.Subtitle}}</p>{{end}}
{{.Chart}}
{{with .Hint}}<div class="hint"><strong>{{.Title}}</strong><ul>
{{range .Items}}<li>{{.}}</li>
{{end}}</ul></div>{{end}}
</section>
{{end}}
`

var (
	templates     *template.Template
	templatesOnce sync.Once
	errTemplates  error
)

func getTemplates() (*template.Template, error) {
	templatesOnce.Do(func() {
		var parseErr error

		templates, parseErr = template.New("plotpage").Parse(pageTemplates)
		if parseErr != nil {
			errTemplates = fmt.Errorf("parsing templates: %w", parseErr)
		}
	})

	return templates, errTemplates
}

func renderTemplate(name string, data any) (template.HTML, error) {
	tmpl, err := getTemplates()
	if err != nil {
		return "", fmt.Errorf("loading templates: %w", err)
	}

	var buf bytes.Buffer

	err = tmpl.ExecuteTemplate(&buf, name, data)
	if err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return template.HTML(buf.String()), nil //nolint:gosec // output of html/template.
}

type pageData struct {
	Title       string
	Description string
	ProjectName string
	Theme       ThemeConfig
	ExtraCSS    template.CSS
	Stats       []Stat
	Content     template.HTML
}

type sectionData struct {
	Title    string
	Subtitle string
	Chart    template.HTML
	Hint     *Hint
}
