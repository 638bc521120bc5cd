package http

import (
	"html/template"
	"net/http"
)

// Result pages shown in the merchant's browser after the OAuth redirect.
// Kept minimal: the merchant app polls connectionStatus for the real answer,
// the page only tells the user they can return to the app.

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>Connection successful</title>
	<style>
		body { font-family: -apple-system, sans-serif; text-align: center; padding: 4rem 1rem; color: #1a1a2e; }
		h1 { color: #00875a; }
	</style>
</head>
<body>
	<h1>Connected</h1>
	<p>{{.Message}}</p>
	<p>You can close this window and return to the app.</p>
</body>
</html>
`))

var failurePage = template.Must(template.New("failure").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>Connection failed</title>
	<style>
		body { font-family: -apple-system, sans-serif; text-align: center; padding: 4rem 1rem; color: #1a1a2e; }
		h1 { color: #de350b; }
	</style>
</head>
<body>
	<h1>Connection failed</h1>
	<p>{{.Message}}</p>
	<p>Close this window and try connecting again from the app.</p>
</body>
</html>
`))

type pageData struct {
	Message string
}

func renderSuccessPage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = successPage.Execute(w, pageData{Message: message})
}

func renderFailurePage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = failurePage.Execute(w, pageData{Message: message})
}
