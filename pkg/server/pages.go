package server

import (
	"html/template"
	"net/http"
	"strings"

	"kalpdemo/pkg/dapp"
	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/models"

	"github.com/gorilla/mux"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>kalpdemo{{if .View}} - {{.View}}{{end}}</title></head>
<body>
<nav>{{range .Apps}}<a href="/{{.}}">{{.}}</a> {{end}}</nav>
{{if .View}}
<h1>{{.View}}</h1>
{{if .State.Loading}}<p class="loading">Loading... ({{.State.InFlight}} in flight)</p>{{end}}
{{with .State.ErrorMessage}}<p class="error">Error: {{.}}</p>{{end}}
{{range .Warnings}}<p class="warning">{{.}}</p>{{end}}
{{if .State.Values}}<dl>{{range $k, $v := .State.Values}}<dt>{{$k}}</dt><dd>{{$v}}</dd>{{end}}</dl>{{end}}
{{range .Operations}}
<form method="post" action="/{{$.View}}/{{.Name}}">
  {{range .Fields}}<label>{{.Name}} <input name="{{.Name}}" value="{{.Value}}"></label> {{end}}
  <button type="submit"{{if $.State.Loading}} disabled{{end}}>{{.Name}}</button>
</form>
{{end}}
{{with .State.LastResult}}
<h2>Last response ({{$.State.LastCall}}, status {{.Status}})</h2>
<pre>{{printf "%s" .Body}}</pre>
<p>Result: {{.Display}}</p>
{{end}}
{{else}}
<h1>kalpdemo</h1>
<ul>{{range .Apps}}<li><a href="/{{.}}">{{.}}</a></li>{{end}}</ul>
{{end}}
</body>
</html>
`))

type formField struct {
	Name  string
	Value string
}

type formOperation struct {
	Name   string
	Fields []formField
}

type pageData struct {
	Apps       []gateway.App
	View       string
	State      models.UIState
	Warnings   []string
	Operations []formOperation
}

// formFields maps an operation's arguments to the view's input fields.
func formFields(v dapp.View, op gateway.Operation) []string {
	if v.Name() == string(gateway.AppAirdrop) && op.Name == "balanceOf" {
		return []string{"address"}
	}
	return op.Args
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	data.Apps = gateway.Apps
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("render failed", "view", data.View, "err", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, pageData{})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	v, ok := s.suite.View(mux.Vars(r)["app"])
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := pageData{
		View:     v.Name(),
		State:    v.State(),
		Warnings: v.Warnings(),
	}
	for _, op := range v.Operations() {
		fo := formOperation{Name: op.Name}
		for _, f := range formFields(v, op) {
			fo.Fields = append(fo.Fields, formField{Name: f, Value: data.State.Inputs[f]})
		}
		data.Operations = append(data.Operations, fo)
	}
	s.render(w, data)
}

// handleSubmit runs one operation from a form post and redirects back to the
// page, which then shows the outcome stored in the view state.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	v, ok := s.suite.View(vars["app"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	op, ok := gateway.Lookup(gateway.App(v.Name()), vars["op"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	for _, f := range formFields(v, op) {
		if _, present := r.PostForm[f]; present {
			v.SetInput(f, strings.TrimSpace(r.PostForm.Get(f)))
		}
	}

	if _, err := v.Handle(r.Context(), op.Name); err != nil {
		s.logger.Warn("form call failed", "view", v.Name(), "op", op.Name, "err", err)
	}
	http.Redirect(w, r, "/"+v.Name(), http.StatusSeeOther)
}
