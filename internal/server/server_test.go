// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2word/internal/artifact"
	"github.com/pdiddy/pdf2word/internal/session"
	"github.com/pdiddy/pdf2word/pkg/types"
)

type testServer struct {
	url    string
	client *http.Client
	reg    *Registry
}

func newTestServer(t *testing.T, interval time.Duration) *testServer {
	t.Helper()
	cfg := types.Config{}.WithDefaults()
	reg := NewRegistry(func() *session.Orchestrator {
		return session.New(session.Options{Interval: interval})
	}, cfg.Server.SessionTTL, nil)
	t.Cleanup(reg.Close)

	ts := httptest.NewServer(New(cfg, reg, nil))
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testServer{url: ts.URL, client: client, reg: reg}
}

func uploadBody(t *testing.T, name, contentType, source string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("source", source))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) post(t *testing.T, path, name, contentType, source string, content []byte) *http.Response {
	t.Helper()
	body, ct := uploadBody(t, name, contentType, source, content)
	resp, err := ts.client.Post(ts.url+path, ct, body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := ts.client.Get(ts.url + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) state(t *testing.T) types.Snapshot {
	t.Helper()
	resp := ts.get(t, "/api/state")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap types.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func (ts *testServer) awaitState(t *testing.T, want types.ConversionState) types.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap := ts.state(t); snap.State == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session never reached %s", want)
	return types.Snapshot{}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

var pdfBytes = []byte("%PDF-1.7\n% test document\n")

func TestIndexIdle(t *testing.T) {
	ts := newTestServer(t, time.Millisecond)

	resp := ts.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Upload Your PDF")
	assert.Contains(t, body, "Supports PDF files up to 10 MB")

	var found bool
	for _, c := range resp.Cookies() {
		found = found || c.Name == CookieName
	}
	assert.True(t, found, "session cookie issued")
}

func TestConvertDownloadReset(t *testing.T) {
	ts := newTestServer(t, time.Millisecond)

	resp := ts.post(t, "/api/convert", "report.pdf", "application/pdf", "drop", pdfBytes)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var res convertResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Accepted)
	assert.Equal(t, "report.pdf", res.Snapshot.Original.Name)

	snap := ts.awaitState(t, types.StateCompleted)
	assert.Equal(t, 100.0, snap.Progress)
	require.NotNil(t, snap.Converted)
	assert.Equal(t, "report.docx", snap.Converted.Name)

	page := readBody(t, ts.get(t, "/"))
	assert.Contains(t, page, "Conversion Complete!")
	assert.Contains(t, page, "The Word document is larger than the original PDF")

	dl := ts.get(t, "/download")
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, artifact.MediaTypeDOCX, dl.Header.Get("Content-Type"))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), `filename=report.docx`)
	assert.Contains(t, readBody(t, dl), "report.pdf")

	reset, err := ts.client.Post(ts.url+"/api/reset", "", nil)
	require.NoError(t, err)
	defer reset.Body.Close()
	var after types.Snapshot
	require.NoError(t, json.NewDecoder(reset.Body).Decode(&after))
	assert.Equal(t, types.StateIdle, after.State)
	assert.Zero(t, after.Progress)
	assert.Nil(t, after.Original)
	assert.Nil(t, after.Converted)
}

func TestDropNonPDFIsIgnored(t *testing.T) {
	ts := newTestServer(t, time.Millisecond)

	resp := ts.post(t, "/api/convert", "photo.png", "image/png", "drop", []byte("png"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res convertResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.Accepted)
	assert.Equal(t, types.StateIdle, res.Snapshot.State)

	assert.Equal(t, types.StateIdle, ts.state(t).State)
}

func TestDownloadBeforeCompletion(t *testing.T) {
	ts := newTestServer(t, time.Hour)

	assert.Equal(t, http.StatusConflict, ts.get(t, "/download").StatusCode)

	ts.post(t, "/api/convert", "report.pdf", "application/pdf", "picker", pdfBytes)
	assert.Equal(t, types.StateProcessing, ts.state(t).State)
	assert.Equal(t, http.StatusConflict, ts.get(t, "/api/download").StatusCode)

	page := readBody(t, ts.get(t, "/"))
	assert.Contains(t, page, "Converting your PDF to Word document...")
	assert.Contains(t, page, `<span id="percent">0</span>% complete`)
}

func TestConvertFormRedirects(t *testing.T) {
	ts := newTestServer(t, time.Hour)

	resp := ts.post(t, "/convert", "report.pdf", "application/octet-stream", "picker", pdfBytes)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Equal(t, types.StateProcessing, ts.state(t).State)

	reset, err := ts.client.Post(ts.url+"/reset", "", nil)
	require.NoError(t, err)
	reset.Body.Close()
	assert.Equal(t, http.StatusSeeOther, reset.StatusCode)
	assert.Equal(t, types.StateIdle, ts.state(t).State)
}

func TestSessionsAreIsolated(t *testing.T) {
	ts := newTestServer(t, time.Hour)
	ts.post(t, "/api/convert", "mine.pdf", "application/pdf", "drop", pdfBytes)

	other, err := http.Get(ts.url + "/api/state")
	require.NoError(t, err)
	defer other.Body.Close()
	var snap types.Snapshot
	require.NoError(t, json.NewDecoder(other.Body).Decode(&snap))
	assert.Equal(t, types.StateIdle, snap.State)
	assert.Equal(t, 2, ts.reg.Len())
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t, time.Millisecond)
	ts.get(t, "/api/state")

	resp := ts.get(t, "/api/events")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	ts.post(t, "/api/convert", "report.pdf", "application/pdf", "drop", pdfBytes)

	scanner := bufio.NewScanner(resp.Body)
	var kind string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			kind = strings.TrimPrefix(line, "event: ")
			continue
		}
		if !strings.HasPrefix(line, "data: ") || kind != string(session.EventState) {
			continue
		}
		var ev session.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		if ev.Snapshot.State == types.StateCompleted {
			assert.Equal(t, 100.0, ev.Snapshot.Progress)
			require.NotNil(t, ev.Notice)
			assert.Equal(t, "Conversion Complete!", ev.Notice.Title)
			return
		}
	}
	t.Fatalf("stream ended before completion: %v", scanner.Err())
}

// testClock is a settable clock safe for use from handler goroutines.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Add(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func TestEventsStreamKeepsSessionAlive(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	cfg := types.Config{}.WithDefaults()
	reg := NewRegistry(func() *session.Orchestrator {
		return session.New(session.Options{Interval: time.Hour})
	}, time.Minute, nil)
	reg.now = clock.Now
	t.Cleanup(reg.Close)

	srv := New(cfg, reg, nil)
	srv.keepAlive = 5 * time.Millisecond
	hs := httptest.NewServer(srv)
	t.Cleanup(hs.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	ts := &testServer{url: hs.URL, client: &http.Client{Jar: jar, Timeout: 10 * time.Second}, reg: reg}
	ts.get(t, "/api/state")
	resp := ts.get(t, "/api/events")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	later := clock.Add(2 * time.Minute)
	require.Eventually(t, func() bool {
		reg.mu.Lock()
		defer reg.mu.Unlock()
		for _, e := range reg.sessions {
			return !e.lastSeen.Before(later)
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, time.Millisecond)
	resp := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"status": "ok"`)
}
