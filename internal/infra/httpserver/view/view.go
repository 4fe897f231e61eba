// Package view renders the page and its htmx fragments as templ components.
package view

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
	"github.com/bryanwahyu/greenscan/internal/domain/history"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("view").Funcs(template.FuncMap{
	"badgeClass": analysis.BadgeClass,
	"field":      newField,
	"list":       newList,
}).ParseFS(templateFS, "templates/*.html"))

// FormData is the product form with its current values and field errors
type FormData struct {
	Values  analysis.Request
	Errors  analysis.FieldErrors
	Loading bool
}

// AnalysisData is the form plus the result panel below it
type AnalysisData struct {
	Form  FormData
	State analysis.State
}

type HistoryData struct {
	Entries  []history.Entry
	Page     int
	HasMore  bool
	NextPage int
}

type ErrorData struct {
	Code  int
	Title string
	Msg   string
}

type field struct {
	Name        string
	Label       string
	Placeholder string
	Description string
	Value       string
	Error       string
}

func newField(name, label, placeholder, description, value string, errs analysis.FieldErrors) field {
	return field{
		Name:        name,
		Label:       label,
		Placeholder: placeholder,
		Description: description,
		Value:       value,
		Error:       errs[name],
	}
}

type list struct {
	Section string
	Title   string
	Items   analysis.List
}

func newList(section, title string, items analysis.List) list {
	return list{Section: section, Title: title, Items: items}
}

func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}

// Page is the full document
func Page(data AnalysisData) templ.Component { return component("page", data) }

// Analysis is the fragment swapped into #analysis
func Analysis(data AnalysisData) templ.Component { return component("analysis", data) }

// History is the history drawer
func History(data HistoryData) templ.Component { return component("history", data) }

func Error(data ErrorData) templ.Component { return component("error", data) }

// Empty renders nothing; anonymous visitors get it instead of the form
func Empty() templ.Component {
	return templ.ComponentFunc(func(context.Context, io.Writer) error { return nil })
}
