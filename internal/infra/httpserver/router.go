package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/m-mizutani/goerr/v2"

	appanalysis "github.com/bryanwahyu/greenscan/internal/application/analysis"
	apphistory "github.com/bryanwahyu/greenscan/internal/application/history"
	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
	"github.com/bryanwahyu/greenscan/internal/infra/httpserver/view"
	"github.com/bryanwahyu/greenscan/internal/logging"
	"github.com/bryanwahyu/greenscan/internal/middleware"
)

// Deps is everything the router serves
type Deps struct {
	Analysis       *appanalysis.Service
	History        *apphistory.Service
	Identity       middleware.IdentityResolver
	Limiter        *middleware.RateLimiter // optional
	AllowedOrigins []string
	Checkers       map[string]middleware.HealthChecker
}

type Router struct {
	analysis *appanalysis.Service
	history  *apphistory.Service
}

func NewRouter(d Deps) http.Handler {
	rt := &Router{analysis: d.Analysis, history: d.History}
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware, middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(d.Checkers))
	mux.Get("/healthz/live", middleware.LivenessHandler)
	mux.Get("/healthz/ready", middleware.ReadinessHandler(d.Checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	limit := func(next http.Handler) http.Handler { return next }
	if d.Limiter != nil {
		limit = middleware.RateLimitMiddleware(d.Limiter)
	}

	mux.Group(func(g chi.Router) {
		g.Use(middleware.Identify(d.Identity))

		g.Method(http.MethodGet, "/", componentHandler(rt.handlePage))
		g.With(limit).Method(http.MethodPost, "/analyze", componentHandler(rt.handleSubmit))
		g.Method(http.MethodGet, "/analyze/status", componentHandler(rt.handleStatus))
		g.Method(http.MethodGet, "/history", componentHandler(rt.handleHistory))

		g.Route("/v1", func(api chi.Router) {
			api.Use(cors.Handler(cors.Options{
				AllowedOrigins:   d.AllowedOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders:   []string{"Authorization", "Content-Type", "X-User-ID", "X-Request-ID"},
				ExposedHeaders:   []string{"X-Request-ID"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			api.Use(middleware.RequireUser)

			api.With(limit).Post("/analyses", rt.wrap(rt.handleAnalyze))
			api.Get("/analyses/state", rt.wrap(rt.handleState))
			api.Get("/history", rt.wrap(rt.handleHistoryList))
		})
	})

	return mux
}

//
// ==== HTML ====
//

// GET /
func (rt *Router) handlePage(w http.ResponseWriter, req *http.Request) *componentResponse {
	user := middleware.GetUserFromContext(req.Context())
	if user == "" {
		return &componentResponse{Code: http.StatusUnauthorized, Component: view.Empty()}
	}
	return ok(view.Page(rt.analysisData(user)))
}

// POST /analyze
func (rt *Router) handleSubmit(w http.ResponseWriter, req *http.Request) *componentResponse {
	user := middleware.GetUserFromContext(req.Context())
	if user == "" {
		return &componentResponse{Code: http.StatusUnauthorized, Component: view.Empty()}
	}
	if err := req.ParseForm(); err != nil {
		return errorComponent(get400(), goerr.Wrap(err, "failed to parse form"))
	}

	in := analysis.Request{
		UserID:    user,
		Product:   middleware.SanitizeString(req.PostFormValue(analysis.FieldProduct)),
		Brand:     middleware.SanitizeString(req.PostFormValue(analysis.FieldBrand)),
		Packaging: middleware.SanitizeString(req.PostFormValue(analysis.FieldPackaging)),
		Origin:    middleware.SanitizeString(req.PostFormValue(analysis.FieldOrigin)),
	}

	state, err := rt.analysis.Submit(req.Context(), in)
	data := view.AnalysisData{Form: view.FormData{Values: in}, State: state}
	code := http.StatusOK

	var fieldErrs analysis.FieldErrors
	switch {
	case err == nil:
		data.Form.Loading = true
	case errors.As(err, &fieldErrs):
		// the previous result stays on screen, nothing was sent
		data.Form.Errors = fieldErrs
		data.State = rt.analysis.State(user)
		data.Form.Loading = data.State.Loading()
		code = http.StatusUnprocessableEntity
	case errors.Is(err, analysis.ErrInProgress):
		data = rt.analysisData(user)
		code = http.StatusConflict
	default:
		return errorComponent(get500(), err)
	}

	return &componentResponse{Code: code, Component: rt.fragmentOrPage(req, data)}
}

// GET /analyze/status
func (rt *Router) handleStatus(w http.ResponseWriter, req *http.Request) *componentResponse {
	user := middleware.GetUserFromContext(req.Context())
	if user == "" {
		return &componentResponse{Code: http.StatusUnauthorized, Component: view.Empty()}
	}
	return ok(rt.fragmentOrPage(req, rt.analysisData(user)))
}

// GET /history?page=
func (rt *Router) handleHistory(w http.ResponseWriter, req *http.Request) *componentResponse {
	user := middleware.GetUserFromContext(req.Context())
	if user == "" {
		return &componentResponse{Code: http.StatusUnauthorized, Component: view.Empty()}
	}

	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	page = middleware.ValidatePage(page)
	size := rt.history.PageSizeFor(0)

	entries, err := rt.history.List(req.Context(), user, page, size)
	if err != nil {
		return errorComponent(get500(), err)
	}

	return ok(view.History(view.HistoryData{
		Entries:  entries,
		Page:     page,
		HasMore:  len(entries) == size,
		NextPage: page + 1,
	}))
}

func (rt *Router) analysisData(user string) view.AnalysisData {
	state := rt.analysis.State(user)
	form := view.FormData{Values: analysis.DefaultRequest(), Loading: state.Loading()}
	if state.Request != nil {
		form.Values = *state.Request
	}
	return view.AnalysisData{Form: form, State: state}
}

func (rt *Router) fragmentOrPage(req *http.Request, data view.AnalysisData) templ.Component {
	if isHTMX(req) {
		return view.Analysis(data)
	}
	return view.Page(data)
}

//
// ==== JSON API ====
//

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (rt *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		logging.From(req.Context()).Warn("api request failed", "error", err, "path", req.URL.Path)

		var fieldErrs analysis.FieldErrors
		switch {
		case errors.As(err, &fieldErrs):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  analysis.ErrInvalidInput.Error(),
				"fields": fieldErrs,
			})
		case errors.Is(err, analysis.ErrUnauthenticated):
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
		case errors.Is(err, analysis.ErrInProgress):
			http.Error(w, analysis.ErrInProgress.Error(), http.StatusConflict)
		case errors.Is(err, errBadRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}

var errBadRequest = goerr.New("bad request")

// POST /v1/analyses
// Body: {"product": "", "brand": "", "packaging": "", "origin": ""}
// Waits for the analysis; answers 200 on success, 502 with the failed
// state, or 202 with the loading state when the client gives up first.
func (rt *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Product   string `json:"product"`
		Brand     string `json:"brand"`
		Packaging string `json:"packaging"`
		Origin    string `json:"origin"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return goerr.Wrap(errBadRequest, "invalid JSON body", goerr.V("cause", err.Error()))
	}

	user := middleware.GetUserFromContext(req.Context())
	in := analysis.Request{
		UserID:    user,
		Product:   middleware.SanitizeString(body.Product),
		Brand:     middleware.SanitizeString(body.Brand),
		Packaging: middleware.SanitizeString(body.Packaging),
		Origin:    middleware.SanitizeString(body.Origin),
	}

	state, err := rt.analysis.Analyze(req.Context(), in)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	code := http.StatusOK
	switch state.Phase {
	case analysis.PhaseLoading:
		code = http.StatusAccepted
	case analysis.PhaseFailed:
		code = http.StatusBadGateway
	}
	return writeJSON(w, code, state)
}

// GET /v1/analyses/state
func (rt *Router) handleState(w http.ResponseWriter, req *http.Request) error {
	user := middleware.GetUserFromContext(req.Context())
	return writeJSON(w, http.StatusOK, rt.analysis.State(user))
}

// GET /v1/history?page=&page_size=
func (rt *Router) handleHistoryList(w http.ResponseWriter, req *http.Request) error {
	user := middleware.GetUserFromContext(req.Context())
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	page = middleware.ValidatePage(page)
	if size > 0 {
		size = middleware.ValidateLimit(size)
	}
	size = rt.history.PageSizeFor(size)

	entries, err := rt.history.List(req.Context(), user, page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"data":     entries,
		"page":     page,
		"pageSize": size,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
