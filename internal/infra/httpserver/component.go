package httpserver

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"

	"github.com/bryanwahyu/greenscan/internal/infra/httpserver/view"
	"github.com/bryanwahyu/greenscan/internal/logging"
)

type componentResponse struct {
	Error     error
	Code      int
	Component templ.Component
}

// componentHandler renders the component a page or fragment handler returns
type componentHandler func(http.ResponseWriter, *http.Request) *componentResponse

func (ch componentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := ch(w, r)

	if resp.Error != nil {
		logging.From(r.Context()).Error("request failed", "error", resp.Error, "path", r.URL.Path)
	}

	code := resp.Code
	if code == 0 {
		code = http.StatusOK
	}
	// htmx only swaps 2xx answers; overwrite the code so the component still renders
	if isHTMX(r) && code >= 400 && code != http.StatusUnauthorized {
		code = http.StatusOK
	}

	var buf bytes.Buffer
	if err := resp.Component.Render(r.Context(), &buf); err != nil {
		logging.From(r.Context()).Error("failed to render component", "error", err, "path", r.URL.Path)
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func ok(c templ.Component) *componentResponse {
	return &componentResponse{Code: http.StatusOK, Component: c}
}

func errorComponent(e errCtx, err error) *componentResponse {
	return &componentResponse{
		Error:     err,
		Code:      e.Code,
		Component: view.Error(view.ErrorData{Code: e.Code, Title: e.Title, Msg: e.Msg}),
	}
}

type errCtx struct {
	Code  int
	Title string
	Msg   string
}

func get400() errCtx {
	return errCtx{
		Code:  http.StatusBadRequest,
		Title: "Bad request",
		Msg:   "Sorry, we could not read the submitted form.",
	}
}

func get500() errCtx {
	return errCtx{
		Code:  http.StatusInternalServerError,
		Title: "Internal server error",
		Msg:   "Sorry, there was an internal server error.",
	}
}
