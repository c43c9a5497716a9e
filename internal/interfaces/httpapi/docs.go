package httpapi

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// docsPage renders /openapi.yaml with the hosted swagger-ui bundle.
const docsPage = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Gym League Tournament Operations API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({ url: '/openapi.yaml', dom_id: '#swagger-ui', deepLinking: true });
    </script>
  </body>
</html>`

func (h *Handler) OpenAPIDocument(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r.Context(), "httpapi.Handler.OpenAPIDocument")
	defer span.End()

	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(openAPIDocument)
}

func (h *Handler) APIDocs(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r.Context(), "httpapi.Handler.APIDocs")
	defer span.End()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsPage))
}
