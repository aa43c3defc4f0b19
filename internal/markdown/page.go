package markdown

import (
	"bytes"
	"html/template"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 0; display: flex; }
nav { width: 18rem; padding: 1rem; border-right: 1px solid #ddd; height: 100vh; overflow: auto; position: sticky; top: 0; box-sizing: border-box; }
nav a { display: block; color: #333; text-decoration: none; padding: 2px 0; }
nav .level-3 { padding-left: 1rem; }
nav .level-4 { padding-left: 2rem; font-size: 0.9em; }
main { padding: 1rem 2rem; flex: 1; min-width: 0; }
pre { background: #f6f8fa; padding: 1rem; overflow: auto; }
{{.CSS}}
</style>
</head>
<body>
<nav>{{range .TOC}}{{if ge .Level 2}}<a class="level-{{.Level}}" href="#{{.Anchor}}">{{.Title}}</a>{{end}}{{end}}</nav>
<main>{{.Body}}</main>
{{if .LiveReload}}<script>
(function () {
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/api/ws");
  ws.onmessage = function (e) {
    var msg = JSON.parse(e.data);
    if (msg.type === "docUpdated" && msg.payload.id === {{.ID}}) { location.reload(); }
  };
})();
</script>{{end}}
</body>
</html>
`))

// PageOptions controls the standalone page.
type PageOptions struct {
	// ID of the document; with LiveReload the page reloads when it is regenerated.
	ID         string
	LiveReload bool
}

// Page renders result as a standalone HTML page with a navigation sidebar.
func Page(result *ParseResult, opts PageOptions) (string, error) {
	css, err := HighlightCSS()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Title      string
		CSS        template.CSS
		TOC        []TOCItem
		Body       template.HTML
		ID         string
		LiveReload bool
	}{
		Title:      result.Title,
		CSS:        template.CSS(css),
		TOC:        result.TOC,
		Body:       template.HTML(result.HTML),
		ID:         opts.ID,
		LiveReload: opts.LiveReload,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render converts a document to a standalone page in one step.
func (p *Parser) Render(source []byte, opts PageOptions) (string, error) {
	result, err := p.Parse(source)
	if err != nil {
		return "", err
	}
	return Page(result, opts)
}
