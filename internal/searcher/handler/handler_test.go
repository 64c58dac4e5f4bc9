package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/features"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/parser"
)

type fakeCache struct {
	mu   sync.Mutex
	docs map[string][]byte
	hits int64
}

func (c *fakeCache) GetOrCompute(_ context.Context, query string, compute func() ([]byte, error)) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if doc, ok := c.docs[query]; ok {
		c.hits++
		return doc, true, nil
	}
	doc, err := compute()
	if err != nil {
		return nil, false, err
	}
	c.docs[query] = doc
	return doc, false, nil
}

func (c *fakeCache) Invalidate(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := int64(len(c.docs))
	c.docs = map[string][]byte{}
	return n, nil
}

func (c *fakeCache) Stats() cache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cache.Stats{Hits: c.hits}
}

type recorder struct {
	events []analytics.ParseEvent
}

func (r *recorder) Track(e analytics.ParseEvent) { r.events = append(r.events, e) }

func newTestHandler(t *testing.T, opts ...Option) *http.ServeMux {
	t.Helper()
	registry, err := features.Registry(nil, nil)
	require.NoError(t, err)
	p, err := parser.New(parser.DefaultConfig(), registry)
	require.NoError(t, err)

	mux := http.NewServeMux()
	New(p, opts...).Register(mux)
	return mux
}

func get(t *testing.T, mux *http.ServeMux, path string, params url.Values) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path+"?"+params.Encode(), nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestParse(t *testing.T) {
	tracker := &recorder{}
	mux := newTestHandler(t, WithCollector(tracker))

	rec, body := get(t, mux, "/api/v1/parse", url.Values{"q": {"foo"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get("X-Parse-Cache"))
	assert.Equal(t, "foo", body["rawQuery"])
	assert.Contains(t, body["queryClasses"], "single_word")

	require.Len(t, tracker.events, 1)
	assert.Equal(t, "foo", tracker.events[0].Query)
	assert.Equal(t, "ok", tracker.events[0].Outcome)
	assert.Contains(t, tracker.events[0].Classes, "single_word")
}

func TestParseWarningsOutcome(t *testing.T) {
	tracker := &recorder{}
	mux := newTestHandler(t, WithCollector(tracker))

	rec, body := get(t, mux, "/api/v1/parse", url.Values{"q": {`"foo bar`}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["warnings"])
	require.Len(t, tracker.events, 1)
	assert.Equal(t, "warnings", tracker.events[0].Outcome)
	assert.Contains(t, tracker.events[0].Warnings, "unbalanced-quotes")
}

func TestParseErrors(t *testing.T) {
	tracker := &recorder{}
	mux := newTestHandler(t, WithCollector(tracker))

	rec, body := get(t, mux, "/api/v1/parse", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", body["code"])

	rec, body = get(t, mux, "/api/v1/parse", url.Values{"q": {strings.Repeat("ab ", 200)}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "query_too_long", body["code"])
	require.Len(t, tracker.events, 1)
	assert.Equal(t, "too_long", tracker.events[0].Outcome)
}

func TestParseEmptyQuery(t *testing.T) {
	mux := newTestHandler(t)
	rec, body := get(t, mux, "/api/v1/parse", url.Values{"q": {""}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", body["rawQuery"])
}

func TestParseCached(t *testing.T) {
	c := &fakeCache{docs: map[string][]byte{}}
	tracker := &recorder{}
	mux := newTestHandler(t, WithCache(c), WithCollector(tracker))

	first, firstBody := get(t, mux, "/api/v1/parse", url.Values{"q": {"intitle:foo bar"}})
	second, secondBody := get(t, mux, "/api/v1/parse", url.Values{"q": {"intitle:foo bar"}})

	assert.Equal(t, "miss", first.Header().Get("X-Parse-Cache"))
	assert.Equal(t, "hit", second.Header().Get("X-Parse-Cache"))
	assert.Equal(t, firstBody, secondBody)

	require.Len(t, tracker.events, 2)
	assert.True(t, tracker.events[1].CacheHit)
	assert.Equal(t, tracker.events[0].Features, tracker.events[1].Features, "cached docs report the same features")

	rec, body := get(t, mux, "/api/v1/cache/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["hits"])

	inv := httptest.NewRecorder()
	mux.ServeHTTP(inv, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusOK, inv.Code)
	assert.Contains(t, inv.Body.String(), `"keys_deleted":1`)
}

func TestCacheDisabled(t *testing.T) {
	mux := newTestHandler(t)

	rec, body := get(t, mux, "/api/v1/cache/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "disabled", body["status"])

	inv := httptest.NewRecorder()
	mux.ServeHTTP(inv, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, inv.Code)
}

func TestClassify(t *testing.T) {
	mux := newTestHandler(t)

	testCases := map[string]struct {
		params   url.Values
		wantCode int
		check    func(t *testing.T, body map[string]any)
	}{
		"all classes": {
			params:   url.Values{"q": {"foo"}},
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["classes"], "single_word")
			},
		},
		"member": {
			params:   url.Values{"q": {"foo"}, "class": {"single_word"}},
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["match"])
			},
		},
		"not a member": {
			params:   url.Values{"q": {"foo bar"}, "class": {"single_word"}},
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, false, body["match"])
			},
		},
		"unknown class": {
			params:   url.Values{"q": {"foo"}, "class": {"nope"}},
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "unknown_class", body["code"])
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			rec, body := get(t, mux, "/api/v1/classify", tc.params)
			assert.Equal(t, tc.wantCode, rec.Code)
			tc.check(t, body)
		})
	}
}

func TestFix(t *testing.T) {
	mux := newTestHandler(t)

	rec, body := get(t, mux, "/api/v1/fix", url.Values{"q": {"helo"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["fixable"])
	assert.Equal(t, "helo", body["part"])

	rec, body = get(t, mux, "/api/v1/fix", url.Values{"q": {"intitle:helo wrd"}, "replacement": {"hello"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "intitle:hello wrd", body["fixed"])

	rec, body = get(t, mux, "/api/v1/fix", url.Values{"q": {`"foo bar"`}, "replacement": {"x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "not_fixable", body["code"])
}
