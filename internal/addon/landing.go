package addon

import (
	"html/template"
	"net/http"

	"fillerinfo/internal/logging"
)

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<style>
body { font-family: sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
code { background: #f0f0f0; padding: 10px; display: block; }
</style>
</head>
<body>
<h1>{{.Name}}</h1>
<p>Series in database: {{.Entries}}</p>
<p>Install by pasting this URL into your media center's addon installer:</p>
<code>{{.ManifestURL}}</code>
<p><a href="/manifest.json">View manifest</a> · <a href="/api/status">Status</a></p>
</body>
</html>
`))

type landingData struct {
	Name        string
	Entries     int
	ManifestURL string
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	data := landingData{
		Name:        s.manifest.Name,
		Entries:     int(s.databaseEntries()),
		ManifestURL: s.manifestURL(r.Host),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := landingTemplate.Execute(w, data); err != nil {
		s.logger.Warn("landing page render failed", logging.Error(err))
	}
}
