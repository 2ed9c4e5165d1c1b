// Package server exposes an executable schema over HTTP. It accepts GET and
// POST requests, JSON batches of operations and optional CORS, and reports
// request and operation lifecycles on an event bus.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/jensneuse/abstractlogger"

	eventbus "github.com/hanpama/gramps/internal/eventbus"
	events "github.com/hanpama/gramps/internal/events"
	executable "github.com/hanpama/gramps/internal/executable"
	executor "github.com/hanpama/gramps/internal/executor"
	language "github.com/hanpama/gramps/internal/language"
	reqid "github.com/hanpama/gramps/internal/reqid"
)

// Handler serves a GraphQL endpoint. Resolvers see the request context that
// middleware stored on the request.
type Handler struct {
	schema *executable.Schema
	exec   *executor.Executor
	docs   *lru.Cache
	opt    Options
}

// New creates a handler for s.
func New(s *executable.Schema, opts ...Option) (*Handler, error) {
	h := &Handler{schema: s, exec: s.Executor(), opt: defaultOptions()}
	for _, apply := range opts {
		apply(&h.opt)
	}
	if n := h.opt.QueryCacheSize; n > 0 {
		cache, err := lru.New(n)
		if err != nil {
			return nil, err
		}
		h.docs = cache
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	rid := r.Header.Get(reqid.Header)
	if rid != "" {
		ctx = reqid.WithID(ctx, rid)
	} else {
		ctx, rid = reqid.NewContext(ctx)
	}
	w.Header().Set(reqid.Header, rid)

	start := time.Now()
	status := http.StatusOK
	eventbus.Publish(ctx, h.opt.Bus, events.HTTPStart{RequestID: rid, Request: r})
	defer func() {
		eventbus.Publish(ctx, h.opt.Bus, events.HTTPFinish{RequestID: rid, Request: r, Status: status, Duration: time.Since(start)})
	}()

	cors := len(h.opt.CORS.AllowedOrigins) > 0
	switch r.Method {
	case http.MethodOptions:
		if cors {
			allowOrigin(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	case http.MethodGet, http.MethodPost:
	default:
		status = http.StatusMethodNotAllowed
		h.respond(w, status, failure("method not allowed"))
		return
	}

	reqs, batch, err := readRequests(r, h.opt.MaxBodyBytes)
	if err != nil {
		status = statusOf(err)
		h.respond(w, status, failure(err.Error()))
		return
	}
	if cors {
		allowOrigin(w, r, h.opt.CORS)
	}

	results := make([]*executor.ExecutionResult, len(reqs))
	for i, req := range reqs {
		results[i] = h.execute(ctx, rid, req)
	}
	if batch {
		h.respond(w, status, results)
		return
	}
	h.respond(w, status, results[0])
}

// execute runs one operation, publishing GraphQLStart and GraphQLFinish
// around it. Documents that fail to parse or validate produce no events.
func (h *Handler) execute(ctx context.Context, rid string, req GraphQLRequest) *executor.ExecutionResult {
	doc, err := h.document(req.Query)
	if err != nil {
		return &executor.ExecutionResult{Errors: executable.GraphQLErrors(err)}
	}
	opType := operationType(doc, req.OperationName)

	start := time.Now()
	eventbus.Publish(ctx, h.opt.Bus, events.GraphQLStart{RequestID: rid, Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)

	errs := make([]error, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, e)
	}
	eventbus.Publish(ctx, h.opt.Bus, events.GraphQLFinish{
		RequestID:     rid,
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
	})
	return result
}

func operationType(doc *language.QueryDocument, name string) string {
	op := doc.Operations.ForName(name)
	if op == nil && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	if op == nil {
		return ""
	}
	return string(op.Operation)
}

// document parses and validates query through the cache. Only documents
// that validate are cached.
func (h *Handler) document(query string) (*language.QueryDocument, error) {
	if h.docs != nil {
		if v, ok := h.docs.Get(query); ok {
			return v.(*language.QueryDocument), nil
		}
	}
	doc, err := h.schema.Validate(query)
	if err == nil && h.docs != nil {
		h.docs.Add(query, doc)
	}
	return doc, err
}

func failure(message string) *executor.ExecutionResult {
	return &executor.ExecutionResult{Errors: []executor.GraphQLError{{Message: message}}}
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		h.opt.Logger.Error("server: write response", log.Error(err))
	}
}

// allowOrigin sets the CORS headers when the request's Origin is allowed.
// Preflight requests also get the allowed methods and headers.
func allowOrigin(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allow := ""
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			allow = "*"
			break
		}
		if o == origin {
			allow = origin
		}
	}
	switch allow {
	case "":
		return
	case "*":
		w.Header().Set("Access-Control-Allow-Origin", "*")
	default:
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
