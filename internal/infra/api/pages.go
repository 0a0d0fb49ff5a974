package api

import (
	"html/template"
	"net/http"
	"strconv"

	"creator-checkout/internal/domain/model"
)

type pageKind string

const (
	pageSuccess  pageKind = "success"
	pageFailure  pageKind = "failure"
	pageLoading  pageKind = "loading"
	pageDeclined pageKind = "declined"
)

type pageData struct {
	Kind    pageKind
	Title   string
	Msg     string
	Warning string
	Receipt *model.Receipt
	Amount  string
	Code    string
	OrderID string
	HomeURL string
	Refresh int // seconds; loading page only
}

var page = template.Must(template.New("result").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
{{if .Refresh}}<meta http-equiv="refresh" content="{{.Refresh}}" />{{end}}
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020} .warn{color:#8a6d00}
.btn{display:inline-block;margin-top:16px;padding:10px 16px;border-radius:8px;border:1px solid #888;text-decoration:none}
dl{display:grid;grid-template-columns:max-content 1fr;gap:4px 16px}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
{{- if eq .Kind "success"}}
  <h2 class="ok">Payment complete</h2>
  {{with .Receipt}}
  <dl>
    <dt>Order</dt><dd>{{.OrderID}}</dd>
    <dt>Amount</dt><dd>{{$.Amount}}</dd>
    {{if .Method}}<dt>Method</dt><dd>{{.Method}}</dd>{{end}}
    <dt>Reference</dt><dd class="small">{{.PaymentKey}}</dd>
  </dl>
  {{end}}
  {{if .Warning}}<p class="warn">{{.Warning}}</p>{{end}}
{{- else if eq .Kind "loading"}}
  <h2>Confirming your payment…</h2>
  <p>{{.Msg}} This page refreshes automatically.</p>
{{- else}}
  <h2 class="fail">{{.Title}}</h2>
  <p>{{.Msg}}</p>
  {{if .Code}}<p class="small">Code: {{.Code}}{{if .OrderID}} · Order: {{.OrderID}}{{end}}</p>{{end}}
{{- end}}
  <a class="btn" href="{{.HomeURL}}">Back to home</a>
</div>
</body>
</html>`))

func (s *Server) renderPage(w http.ResponseWriter, code int, d pageData) {
	d.HomeURL = s.opts.HomeURL
	if d.Receipt != nil {
		d.Amount = formatAmount(d.Receipt.Amount)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := page.Execute(w, d); err != nil {
		s.log.Error().Err(err).Str("page", string(d.Kind)).Msg("render result page")
	}
}

// formatAmount groups thousands: 10000 -> "10,000".
func formatAmount(n int64) string {
	raw := strconv.FormatInt(n, 10)
	neg := n < 0
	if neg {
		raw = raw[1:]
	}
	out := make([]byte, 0, len(raw)+len(raw)/3)
	for i := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, raw[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
