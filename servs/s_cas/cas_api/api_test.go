package cas_api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rskv-p/cas/config"
	"github.com/rskv-p/cas/servs/s_cas/cas_api"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

const sample = `/usr/lib;42;1
/usr/bin;7;2
/home/ann;42;3
`

func newServer(t *testing.T, apiCfg config.APISettings) *httptest.Server {
	t.Helper()
	ts, _ := newServerStore(t, apiCfg)
	return ts
}

func newServerStore(t *testing.T, apiCfg config.APISettings) (*httptest.Server, cas_serv.Store) {
	t.Helper()
	store := cas_serv.NewTyped[int64]()
	_, err := store.Import(strings.NewReader(sample), ';', true)
	require.NoError(t, err)

	srv, err := cas_api.New(store, apiCfg, ';', zerolog.Nop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func defaultAPI() config.APISettings {
	cfg := config.Default().API
	cfg.JWTSecret = secret
	return cfg
}

func do(t *testing.T, method, url, token, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func decodeResult(t *testing.T, b []byte) cas_serv.QueryResult {
	t.Helper()
	var res cas_serv.QueryResult
	require.NoError(t, json.Unmarshal(b, &res))
	return res
}

// TestAPI_Query tests queries by URL and by JSON body.
func TestAPI_Query(t *testing.T) {
	ts := newServer(t, defaultAPI())

	resp, b := do(t, http.MethodGet, ts.URL+"/api/query?path=/usr/?&low=40&high=50", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeResult(t, b)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, uint64(1), res.Matches[0].DID)
	assert.Empty(t, resp.Header.Get("X-Cache"))

	t.Run("cached", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, ts.URL+"/api/query?path=/usr/?&low=40&high=50", "", "")
		assert.Equal(t, "hit", resp.Header.Get("X-Cache"))
	})

	t.Run("body", func(t *testing.T) {
		resp, b := do(t, http.MethodPost, ts.URL+"/api/query", "", `{"path":"//","low":42,"high":42}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decodeResult(t, b).Matches, 2)
	})

	t.Run("bad bound", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, ts.URL+"/api/query?path=/&low=abc", "", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

// TestAPI_Auth tests that mutating routes require a token.
func TestAPI_Auth(t *testing.T) {
	ts := newServer(t, defaultAPI())
	rec := `{"path":"/usr/share","value":42,"did":4}`

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/keys", "", rec)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/keys", "garbage", rec)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	expired, err := cas_api.IssueToken(secret, "tester", "admin", -time.Minute)
	require.NoError(t, err)
	resp, _ = do(t, http.MethodPost, ts.URL+"/api/keys", expired, rec)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, err = cas_api.IssueToken("", "tester", "admin", time.Minute)
	assert.Error(t, err)

	t.Run("login", func(t *testing.T) {
		hash, err := cas_api.HashPassword("pw")
		require.NoError(t, err)
		cfg := defaultAPI()
		cfg.AdminHash = hash
		ts := newServer(t, cfg)

		resp, _ := do(t, http.MethodPost, ts.URL+"/api/login", "", `{"username":"admin","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, b := do(t, http.MethodPost, ts.URL+"/api/login", "", `{"username":"admin","password":"pw"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out map[string]string
		require.NoError(t, json.Unmarshal(b, &out))
		resp, _ = do(t, http.MethodPost, ts.URL+"/api/keys", out["token"], rec)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("login disabled", func(t *testing.T) {
		resp, _ := do(t, http.MethodPost, ts.URL+"/api/login", "", `{"username":"admin","password":"pw"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

// TestAPI_Mutations tests insert, delete and merge, and that they
// invalidate cached query results.
func TestAPI_Mutations(t *testing.T) {
	ts := newServer(t, defaultAPI())
	token, err := cas_api.IssueToken(secret, "tester", "admin", time.Hour)
	require.NoError(t, err)
	query := ts.URL + "/api/query?path=/usr/?&low=42&high=42"

	_, b := do(t, http.MethodGet, query, "", "")
	assert.Len(t, decodeResult(t, b).Matches, 1)

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/keys", token, `{"path":"/usr/share","value":42,"did":4}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, b = do(t, http.MethodGet, query, "", "")
	assert.Empty(t, resp.Header.Get("X-Cache"))
	assert.Len(t, decodeResult(t, b).Matches, 2)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/keys", token, `{"path":"/usr/lib","value":"42","did":1}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/keys", token, `{"path":"/usr/lib","value":"42","did":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, b = do(t, http.MethodGet, query, "", "")
	res := decodeResult(t, b)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, uint64(4), res.Matches[0].DID)

	resp, b = do(t, http.MethodPost, ts.URL+"/api/merge", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info cas_serv.Info
	require.NoError(t, json.Unmarshal(b, &info))
	assert.Equal(t, 3, info.Keys)
}

// TestAPI_SharedStore tests that mutations made on the store by another
// surface are visible to cached queries.
func TestAPI_SharedStore(t *testing.T) {
	ts, store := newServerStore(t, defaultAPI())
	query := ts.URL + "/api/query?path=/usr/lib"

	_, b := do(t, http.MethodGet, query, "", "")
	require.Len(t, decodeResult(t, b).Matches, 1)
	resp, _ := do(t, http.MethodGet, query, "", "")
	require.Equal(t, "hit", resp.Header.Get("X-Cache"))

	_, err := store.Insert(cas_serv.Record{Path: "/usr/lib", Value: 5, DID: 99})
	require.NoError(t, err)

	resp, b = do(t, http.MethodGet, query, "", "")
	assert.Empty(t, resp.Header.Get("X-Cache"))
	var dids []uint64
	for _, m := range decodeResult(t, b).Matches {
		dids = append(dids, m.DID)
	}
	assert.ElementsMatch(t, []uint64{1, 99}, dids)

	store.Merge()
	resp, _ = do(t, http.MethodGet, query, "", "")
	assert.Empty(t, resp.Header.Get("X-Cache"))
}

// TestAPI_ImportExport tests the CSV routes.
func TestAPI_ImportExport(t *testing.T) {
	ts := newServer(t, defaultAPI())
	token, err := cas_api.IssueToken(secret, "tester", "admin", time.Hour)
	require.NoError(t, err)

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/import?bulk=true", token, "/x;1;10\n/y;2;11\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, b := do(t, http.MethodGet, ts.URL+"/api/export", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/x;1;10\n/y;2;11\n", string(b))

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/import", token, "/z;nope;1\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestAPI_Metrics tests the prometheus endpoint and the stats route.
func TestAPI_Metrics(t *testing.T) {
	ts := newServer(t, defaultAPI())
	do(t, http.MethodGet, ts.URL+"/api/query?path=//", "", "")

	resp, b := do(t, http.MethodGet, ts.URL+"/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "cas_index_keys 3")
	assert.Contains(t, string(b), `cas_http_requests_total{code="200",method="GET",route="/api/query"} 1`)
	assert.Contains(t, string(b), "cas_query_matches_total 3")

	resp, b = do(t, http.MethodGet, ts.URL+"/api/stats", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `"keys":3`)

	t.Run("disabled", func(t *testing.T) {
		cfg := defaultAPI()
		cfg.Metrics = false
		cfg.CacheSize = 0
		ts := newServer(t, cfg)
		resp, _ := do(t, http.MethodGet, ts.URL+"/metrics", "", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

// TestAPI_WebSocket tests a streamed query.
func TestAPI_WebSocket(t *testing.T) {
	ts := newServer(t, defaultAPI())
	token, err := cas_api.IssueToken(secret, "tester", "reader", time.Hour)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/query?token=" + token

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/query", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(cas_serv.QueryRequest{Path: "//", Low: 42, High: 42}))
	var got []uint64
	for {
		var ev cas_api.WSEvent
		require.NoError(t, conn.ReadJSON(&ev))
		if ev.Type == "done" {
			require.NotNil(t, ev.Stats)
			assert.Equal(t, 2, ev.Stats.Matches)
			break
		}
		require.Equal(t, "match", ev.Type)
		got = append(got, ev.Record.DID)
	}
	assert.ElementsMatch(t, []uint64{1, 3}, got)

	require.NoError(t, conn.WriteJSON(map[string]string{"path": "/a\x00"}))
	var ev cas_api.WSEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "error", ev.Type)
}
