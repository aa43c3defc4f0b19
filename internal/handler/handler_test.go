package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CageChen/repodoc/internal/config"
	"github.com/CageChen/repodoc/internal/docextract"
	"github.com/CageChen/repodoc/internal/runner"
	"github.com/CageChen/repodoc/internal/structure"
	"github.com/CageChen/repodoc/internal/watcher"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	cfg    *config.Config
	runner *runner.Runner
	ws     *WSHandler
	engine *gin.Engine
	dir    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "webapp")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "index.ts"), []byte("/** Entry. */"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setup.py"), []byte(`"""Setup."""`), 0o644))

	cfg := config.DefaultConfig()
	cfg.SetConfigFilePath(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, cfg.UsePaths([]string{dir}, ""))

	r := runner.New(cfg, structure.New(docextract.NewDefault()))
	t.Cleanup(r.Close)
	ws := NewWSHandler()
	r.OnGenerated(ws.OnGenerated)

	return &testServer{cfg: cfg, runner: r, ws: ws, engine: NewRouter(cfg, r, ws), dir: dir}
}

func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestListDocs(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Docs []DocSummary `json:"docs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Docs, 1)
	assert.Equal(t, "0", resp.Docs[0].ID)
	assert.Equal(t, "webapp", resp.Docs[0].Alias)
	assert.Nil(t, resp.Docs[0].GeneratedAt)

	s.do(t, http.MethodPost, "/api/docs/0/regenerate", nil)
	w = s.do(t, http.MethodGet, "/api/docs", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Docs[0].GeneratedAt)
}

func TestGetDoc(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/docs/0", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp DocResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "WEBAPP Structure", resp.Title)
	assert.Contains(t, resp.HTML, `<h4 id="index-ts">index.ts</h4>`)
	assert.Contains(t, resp.HTML, "Entry.")

	var titles []string
	for _, item := range resp.TOC {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"WEBAPP Structure", "Directory Structure", "File Documentation", "src", "index.ts", "setup.py"}, titles)

	// First access generated and wrote the document
	_, err := os.Stat(filepath.Join(s.dir, config.DefaultOutputName))
	assert.NoError(t, err)
}

func TestGetRawAndView(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/raw/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "# WEBAPP Structure\n"))
	assert.Contains(t, w.Body.String(), "\n#### setup.py\nSetup.\n")

	w = s.do(t, http.MethodGet, "/view/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>WEBAPP Structure</title>")
	assert.Contains(t, w.Body.String(), "/api/ws")

	w = s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/view/0", w.Header().Get("Location"))
}

func TestUnknownDoc(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/api/docs/9", "/api/raw/9", "/view/9"} {
		w := s.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}
	w := s.do(t, http.MethodPost, "/api/docs/9/regenerate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegenerateSeesChanges(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/raw/0", nil)
	assert.NotContains(t, w.Body.String(), "worker.py")

	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "worker.py"), []byte(`"""Worker."""`), 0o644))
	w = s.do(t, http.MethodPost, "/api/docs/0/regenerate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/raw/0", nil)
	assert.Contains(t, w.Body.String(), "\n#### worker.py\nWorker.\n")
}

func TestFolders(t *testing.T) {
	s := newTestServer(t)
	other := t.TempDir()

	w := s.do(t, http.MethodPost, "/api/folders", AddFolderRequest{Path: other, Alias: "Other"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s.runner.Targets(), 2)
	assert.Equal(t, "Other", s.runner.Targets()[1].Alias)

	saved, err := config.Load(s.cfg.GetConfigFilePath(), nil)
	require.NoError(t, err)
	assert.Len(t, saved.Folders, 2)

	w = s.do(t, http.MethodPost, "/api/folders", AddFolderRequest{Path: filepath.Join(other, "nope")})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/folders", AddFolderRequest{Path: other, SubPath: "missing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/folders", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/folders", RemoveFolderRequest{Index: 0})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s.runner.Targets(), 1)
	assert.Equal(t, "Other", s.runner.Targets()[0].Alias)

	w = s.do(t, http.MethodDelete, "/api/folders", RemoveFolderRequest{Index: 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/folders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alias":"Other"`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodOptions, "/api/docs", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketBroadcast(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.ws.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/docs/0/regenerate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "docUpdated", msg.Type)
	assert.Equal(t, "0", msg.Payload["id"])
	assert.Equal(t, "webapp", msg.Payload["alias"])

	s.ws.OnFileChange(watcher.Event{Type: watcher.EventCreate, Path: "/tmp/x.py"})
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "fileChange", msg.Type)
	assert.Equal(t, "create", msg.Payload["event"])
}
