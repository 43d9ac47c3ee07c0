package api

import (
	_ "embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"formrelay/backend/internal/auth"
)

//go:embed openapi.yaml
var openapiSpec string

// RegisterDocs serves the OpenAPI document and a Swagger UI configured to
// authorize against issuer with the public PKCE client clientID.
func RegisterDocs(e *echo.Echo, issuer, clientID string) {
	e.GET("/openapi.yaml", echo.WrapHandler(SpecHandler(issuer)))
	e.GET("/docs", echo.WrapHandler(SwaggerHandler(clientID)))
	e.GET("/docs/oauth2-redirect.html", echo.WrapHandler(http.HandlerFunc(OAuthRedirectHandler)))
}

// SpecHandler serves the OpenAPI YAML spec. The embedded document contains an
// {issuer} placeholder so the tenant is only known at runtime.
func SpecHandler(issuer string) http.HandlerFunc {
	spec := strings.ReplaceAll(openapiSpec, "{issuer}", issuer)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write([]byte(spec))
	}
}

// SwaggerHandler returns an HTTP handler that serves the Swagger UI.
func SwaggerHandler(clientID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
			scheme = fwd
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := swaggerPage.Execute(w, swaggerParams{
			SpecURL:     "/openapi.yaml",
			RedirectURL: scheme + "://" + r.Host + "/docs/oauth2-redirect.html",
			ClientID:    clientID,
			Scopes:      strings.Join(auth.AllScopes, " "),
		})
		if err != nil {
			http.Error(w, "failed to render docs", http.StatusInternalServerError)
		}
	}
}

// OAuthRedirectHandler serves the OAuth2 redirect page used by Swagger UI
func OAuthRedirectHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(oauthRedirectHTML))
}

type swaggerParams struct {
	SpecURL     string
	RedirectURL string
	ClientID    string
	Scopes      string
}

var swaggerPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>FormRelay API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  <style>
    .dialog-ux input[name="client_id"], .dialog-ux label[for="client_id"],
    .dialog-ux input[name="client_secret"], .dialog-ux label[for="client_secret"] { display: none !important; }
  </style>
</head>
<body>
  <div id="docs"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
  window.addEventListener("load", () => {
    const ui = SwaggerUIBundle({
      url: {{.SpecURL}},
      dom_id: "#docs",
      deepLinking: true,
      persistAuthorization: true,
      oauth2RedirectUrl: {{.RedirectURL}},
    });
    ui.initOAuth({
      clientId: {{.ClientID}},
      scopes: {{.Scopes}},
      usePkceWithAuthorizationCodeGrant: true,
    });
    window.ui = ui;
  });
  </script>
</body>
</html>`))

const oauthRedirectHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"/><title>OAuth2 Redirect</title></head>
<body>
<script>
if (window.opener && window.opener.swaggerUIRedirectCallback) {
  window.opener.swaggerUIRedirectCallback(window.location.href);
}
</script>
</body>
</html>`
