package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	abstractlogger "github.com/jensneuse/abstractlogger"

	eventbus "github.com/hanpama/supergraph/internal/eventbus"
	events "github.com/hanpama/supergraph/internal/events"
	language "github.com/hanpama/supergraph/internal/language"
	planning "github.com/hanpama/supergraph/internal/planning"
	reqid "github.com/hanpama/supergraph/internal/reqid"
	som "github.com/hanpama/supergraph/internal/som"
)

// Handler is an http.Handler serving the planning endpoints: POST /
// accepts a GraphQL request and returns its field-set plan, GET
// /supergraph returns the composed SDL.
type Handler struct {
	schema *som.Schema
	sdl    string
	opt    Options
	log    abstractlogger.Logger
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// Logger receives request logs. Defaults to a noop logger.
	Logger abstractlogger.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithLogger(l abstractlogger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a planning HTTP handler over a composed supergraph.
func New(schema *som.Schema, supergraphSDL string, opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second, Logger: abstractlogger.Noop{}}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{schema: schema, sdl: supergraphSDL, opt: op, log: op.Logger}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
		h.log.Debug("request served",
			abstractlogger.Any("requestID", rid),
			abstractlogger.String("path", r.URL.Path),
			abstractlogger.Int("status", status),
		)
	}()

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}
	if r.Method == http.MethodOptions {
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.URL.Path == "/supergraph" {
		if r.Method != http.MethodGet {
			status = http.StatusMethodNotAllowed
			writeJSON(w, status, errorResponse("method not allowed"), h.opt.Pretty)
			return
		}
		w.Header().Set("Content-Type", "application/graphql; charset=utf-8")
		_, _ = io.WriteString(w, h.sdl)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse("method not allowed"), h.opt.Pretty)
		return
	}

	req, perr := parseRequest(r, h.opt.MaxBodyBytes)
	if perr != "" {
		status = http.StatusBadRequest
		if perr == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(perr), h.opt.Pretty)
		return
	}

	res, planErr := h.planOne(ctx, req)
	if planErr != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse(planErr.Error()), h.opt.Pretty)
		return
	}
	writeJSON(w, status, res, h.opt.Pretty)
}

// planResult is the response body for a successful plan.
type planResult struct {
	Operation string                  `json:"operation"`
	Fields    []planning.PlannedField `json:"fields"`
}

func (h *Handler) planOne(ctx context.Context, req planRequest) (*planResult, error) {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return nil, err
	}
	pctx, err := planning.NewContextFromDocument(h.schema, doc, req.OperationName)
	if err != nil {
		return nil, err
	}
	opType := string(pctx.Operation.Operation)

	start := time.Now()
	eventbus.Publish(ctx, events.PlanStart{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
	})
	fields, err := pctx.RootFieldSet()
	eventbus.Publish(ctx, events.PlanFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Fields:        len(fields),
		Err:           err,
		Duration:      time.Since(start),
	})
	if err != nil {
		return nil, err
	}
	return &planResult{Operation: opType, Fields: fields}, nil
}

// ------------------ Request parsing ------------------

type planRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (planRequest, string) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return planRequest{}, "missing 'query'"
		}
		return planRequest{
			Query:         q,
			OperationName: r.URL.Query().Get("operationName"),
		}, ""
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return planRequest{}, "unsupported Content-Type"
	}
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return planRequest{}, "failed to read body"
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return planRequest{}, errBodyTooLargeMessage
	}
	var req planRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return planRequest{}, "invalid JSON"
	}
	if req.Query == "" {
		return planRequest{}, "missing 'query'"
	}
	return req, ""
}

// ------------------ Response formatting ------------------

type specError struct {
	Message string `json:"message"`
}

type specResult struct {
	Data   any         `json:"data"`
	Errors []specError `json:"errors,omitempty"`
}

func errorResponse(message string) specResult {
	return specResult{Errors: []specError{{Message: message}}}
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	wildcard := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			allowed = true
			wildcard = true
		}
		if o == origin {
			allowed = true
		}
	}
	if !allowed {
		return
	}
	if wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}
