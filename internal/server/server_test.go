package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/gramps/internal/eventbus"
	events "github.com/hanpama/gramps/internal/events"
	executable "github.com/hanpama/gramps/internal/executable"
	reqid "github.com/hanpama/gramps/internal/reqid"
	resolver "github.com/hanpama/gramps/internal/resolver"
)

func newTestHandler(t *testing.T, hello resolver.FieldFunc, opts ...Option) *Handler {
	t.Helper()
	if hello == nil {
		hello = func(any, map[string]any, any, *resolver.Info) (any, error) { return "world", nil }
	}
	s, err := executable.Make(executable.Config{
		TypeDefs:  []string{`type Query { hello: String }`},
		Resolvers: resolver.Map{"Query": resolver.Object{"hello": hello}},
	})
	require.NoError(t, err)
	h, err := New(s, opts...)
	require.NoError(t, err)
	return h
}

func post(h http.Handler, body string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPostQuery(t *testing.T) {
	w := post(newTestHandler(t, nil), `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]any{"data": map[string]any{"hello": "world"}}, decode(t, w))
}

func TestGetQuery(t *testing.T) {
	h := newTestHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/?query=%7B%20hello%20%7D", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]any{"data": map[string]any{"hello": "world"}}, decode(t, w))
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t, nil)

	w := post(h, `{`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = post(h, `{"variables":{}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "missing 'query'")

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestValidationErrors(t *testing.T) {
	w := post(newTestHandler(t, nil), `{"query":"{ nope }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	require.Nil(t, out["data"])
	require.NotEmpty(t, out["errors"])
}

func TestBatch(t *testing.T) {
	w := post(newTestHandler(t, nil), `[{"query":"{ hello }"},{"query":"{ a: hello }"}]`)
	require.Equal(t, http.StatusOK, w.Code)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, []map[string]any{
		{"data": map[string]any{"hello": "world"}},
		{"data": map[string]any{"a": "world"}},
	}, out)

	w = post(newTestHandler(t, nil), `[]`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, nil, WithCORS("*"))

	w := post(h, `{"query":"{ hello }"}`, "Origin", "http://example.com")
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	pre := httptest.NewRequest(http.MethodOptions, "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	require.Equal(t, http.StatusNoContent, pw.Code)
	require.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSSpecificOrigin(t *testing.T) {
	h := newTestHandler(t, nil, WithCORS("http://a.test"))

	w := post(h, `{"query":"{ hello }"}`, "Origin", "http://a.test")
	require.Equal(t, "http://a.test", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", w.Header().Get("Vary"))

	w = post(h, `{"query":"{ hello }"}`, "Origin", "http://b.test")
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMaxBodyBytes(t *testing.T) {
	w := post(newTestHandler(t, nil, WithMaxBodyBytes(10)), `{"query":"1234567890"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := newTestHandler(t, func(_ any, _ map[string]any, _ any, info *resolver.Info) (any, error) {
		seen, _ = reqid.FromContext(info.Context)
		return "world", nil
	})

	w := post(h, `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := w.Header().Get(reqid.Header)
	require.Equal(t, got, seen)
	_, err := uuid.Parse(got)
	require.NoError(t, err)

	w = post(h, `{"query":"{ hello }"}`, reqid.Header, "upstream-1")
	require.Equal(t, "upstream-1", w.Header().Get(reqid.Header))
	require.Equal(t, "upstream-1", seen)
}

func TestRequestContextReachesResolvers(t *testing.T) {
	var seen any
	h := newTestHandler(t, func(_ any, _ map[string]any, ctx any, _ *resolver.Info) (any, error) {
		seen = ctx
		return "world", nil
	})
	rc := resolver.RequestContext{"Foo": map[string]any{"foo": "x"}}
	mw := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(resolver.WithRequestContext(r.Context(), rc)))
	})

	w := post(mw, `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, rc, seen)
}

func TestQueryCache(t *testing.T) {
	h := newTestHandler(t, nil, WithQueryCache(4))

	post(h, `{"query":"{ hello }"}`)
	require.Equal(t, 1, h.docs.Len())
	post(h, `{"query":"{ hello }"}`)
	require.Equal(t, 1, h.docs.Len())

	post(h, `{"query":"{ nope }"}`)
	require.Equal(t, 1, h.docs.Len(), "invalid documents are not cached")

	off := newTestHandler(t, nil, WithQueryCache(0))
	require.Nil(t, off.docs)
	w := post(off, `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBusEvents(t *testing.T) {
	bus := eventbus.New()
	var (
		mu   sync.Mutex
		seen []string
	)
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	}
	var ids []string
	eventbus.Subscribe(bus, func(_ context.Context, e events.HTTPStart) {
		ids = append(ids, e.RequestID)
		record("http.start")
	})
	eventbus.Subscribe(bus, func(_ context.Context, e events.HTTPFinish) {
		record("http.finish " + http.StatusText(e.Status))
	})
	eventbus.Subscribe(bus, func(_ context.Context, e events.GraphQLStart) {
		ids = append(ids, e.RequestID)
		record("graphql.start " + e.OperationType)
	})
	eventbus.Subscribe(bus, func(_ context.Context, e events.GraphQLFinish) {
		record("graphql.finish " + strings.Repeat("!", len(e.Errors)))
	})

	w := post(newTestHandler(t, nil, WithBus(bus)), `{"query":"query Q { hello }"}`)
	require.Equal(t, []string{
		"http.start",
		"graphql.start query",
		"graphql.finish ",
		"http.finish OK",
	}, seen)
	rid := w.Header().Get(reqid.Header)
	require.Equal(t, []string{rid, rid}, ids)
}
