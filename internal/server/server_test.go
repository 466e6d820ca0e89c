package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"duet/internal/chatapi"
	"duet/internal/tutor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTutor struct {
	mu        sync.Mutex
	askErr    error
	reloadErr error
	history   []tutor.Turn
	reloaded  []int
}

func (f *fakeTutor) Ask(_ context.Context, question string) (tutor.Turn, error) {
	if strings.TrimSpace(question) == "" {
		return tutor.Turn{}, tutor.ErrEmptyQuestion
	}
	if f.askErr != nil {
		return tutor.Turn{}, f.askErr
	}
	turn := tutor.Turn{Question: question, Answer: "answer to " + question, Check: "通过"}
	f.mu.Lock()
	f.history = append(f.history, turn)
	f.mu.Unlock()
	return turn, nil
}

func (f *fakeTutor) History() []tutor.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tutor.Turn(nil), f.history...)
}

func (f *fakeTutor) Reload(maxPages int) error {
	if maxPages <= 0 {
		return tutor.ErrInvalidPages
	}
	if f.reloadErr != nil {
		return f.reloadErr
	}
	f.reloaded = append(f.reloaded, maxPages)
	return nil
}

func (f *fakeTutor) Stats() tutor.Stats {
	return tutor.Stats{Loaded: true, Pages: 10, TotalPages: 400, Chars: 8000, Turns: len(f.History())}
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChat_Success(t *testing.T) {
	s := NewServer(Config{}, &fakeTutor{}, nil)

	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"什么是卷积?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp chatapi.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "什么是卷积?", resp.Question)
	assert.Equal(t, "answer to 什么是卷积?", resp.Answer)
	assert.Equal(t, "通过", resp.Check)
}

func TestChat_EmptyMessage(t *testing.T) {
	s := NewServer(Config{}, &fakeTutor{}, nil)

	for _, body := range []string{`{"message":"   "}`, `{}`} {
		rec := do(t, s, http.MethodPost, "/api/chat", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"detail":"Message cannot be empty"}`, rec.Body.String())
	}
}

func TestChat_MalformedBody(t *testing.T) {
	s := NewServer(Config{}, &fakeTutor{}, nil)
	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_PipelineError(t *testing.T) {
	s := NewServer(Config{}, &fakeTutor{askErr: errors.New("问题回答者: upstream timeout")}, nil)

	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body chatapi.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "问题回答者: upstream timeout", body.Detail)
}

func TestHistory(t *testing.T) {
	ft := &fakeTutor{}
	s := NewServer(Config{}, ft, nil)
	do(t, s, http.MethodPost, "/api/chat", `{"message":"one"}`)
	do(t, s, http.MethodPost, "/api/chat", `{"message":"two"}`)

	rec := do(t, s, http.MethodGet, "/api/history", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		History []tutor.Turn `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.History, 2)
	assert.Equal(t, "one", body.History[0].Question)
	assert.Equal(t, "two", body.History[1].Question)
}

func TestReloadKnowledge(t *testing.T) {
	ft := &fakeTutor{}
	s := NewServer(Config{}, ft, nil)

	rec := do(t, s, http.MethodPost, "/api/knowledge/reload", `{"max_pages":20}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{20}, ft.reloaded)

	rec = do(t, s, http.MethodPost, "/api/knowledge/reload", `{"max_pages":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ft.reloadErr = errors.New("open data/book.txt: no such file or directory")
	rec = do(t, s, http.MethodPost, "/api/knowledge/reload", `{"max_pages":5}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	s := NewServer(Config{}, &fakeTutor{}, nil)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

func TestRequestID(t *testing.T) {
	s := NewServer(Config{}, &fakeTutor{}, nil)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "caller-id")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", rec.Header().Get(requestIDHeader))
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>duet</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "script.js"), []byte("console.log(1)"), 0o644))
	s := NewServer(Config{StaticDir: dir}, &fakeTutor{}, nil)

	rec := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>duet</h1>")

	rec = do(t, s, http.MethodGet, "/static/script.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStaticDirMissing(t *testing.T) {
	s := NewServer(Config{StaticDir: filepath.Join(t.TempDir(), "nope")}, &fakeTutor{}, nil)
	rec := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRun_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := NewServer(Config{Addr: addr, ShutdownTimeout: time.Second}, &fakeTutor{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := NewServer(Config{Addr: ln.Addr().String()}, &fakeTutor{}, nil)
	err = s.Run(context.Background())
	assert.Error(t, err)
}
