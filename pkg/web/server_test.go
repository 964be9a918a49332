package web

import (
	"bufio"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/wellradar/pkg/editor"
	"github.com/vanderheijden86/wellradar/pkg/model"
	"github.com/vanderheijden86/wellradar/pkg/sheet"
)

func newTestServer(t *testing.T, opts Options) (*Server, *editor.Editor) {
	t.Helper()
	ed := editor.New(model.DefaultRadar(), editor.WithCommitDelay(10*time.Millisecond))
	srv, err := New(ed, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv, ed
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := do(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version == "" {
		t.Errorf("unexpected health %+v", resp)
	}
}

func TestIndex(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := do(t, srv, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`id="radar"`,
		"data-signals=",
		"Wellness Radar",
		`id="sector-5"`,
		`id="readout-0"`,
		"56%",
		"/assets/korperundbewegung.svg",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if strings.Contains(body, "<?xml") {
		t.Error("inline chart should not carry an XML prolog")
	}
	if strings.Contains(body, "Sync from sheet") {
		t.Error("sync button shown without a sheet")
	}
}

func TestRadarSVG(t *testing.T) {
	srv, _ := newTestServer(t, Options{AssetBase: "icons"})
	rec := do(t, srv, http.MethodGet, "/radar.svg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "/icons/korperundbewegung.svg") {
		t.Error("icons should resolve against the configured base")
	}
}

func TestRadarPNG(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := do(t, srv, http.MethodGet, "/radar.png?scale=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 264 || b.Dy() != 264 {
		t.Errorf("bounds = %v, want 264x264", b)
	}

	if rec := do(t, srv, http.MethodGet, "/radar.png?scale=nope", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad scale status = %d", rec.Code)
	}
}

func TestLayoutJSON(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := do(t, srv, http.MethodGet, "/layout.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := doc["primitives"]; !ok {
		t.Errorf("missing primitives: %v", doc)
	}
}

func TestReport(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := do(t, srv, http.MethodGet, "/report.md", "")
	if !strings.Contains(rec.Body.String(), "# Wellness Radar") {
		t.Errorf("report missing title:\n%s", rec.Body)
	}
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := do(t, srv, http.MethodGet, "/debug/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "strength_commits") {
		t.Errorf("metrics = %d %s", rec.Code, rec.Body)
	}
}

func TestAssets(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := do(t, srv, http.MethodGet, "/assets/StressundErholung.svg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("expected the bundled icon")
	}
	if rec := do(t, srv, http.MethodGet, "/assets/missing.svg", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d", rec.Code)
	}
}

func TestAssetFS_OverrideShadowsBundled(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "korperundbewegung.svg"), []byte("<svg>override</svg>"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv, _ := newTestServer(t, Options{Assets: AssetFS(dir)})

	rec := do(t, srv, http.MethodGet, "/assets/korperundbewegung.svg", "")
	if !strings.Contains(rec.Body.String(), "override") {
		t.Error("override directory should win")
	}
	rec = do(t, srv, http.MethodGet, "/assets/UmweltundSoziales.svg", "")
	if rec.Code != http.StatusOK {
		t.Errorf("bundled fallback status = %d", rec.Code)
	}
}

func TestPostTitle(t *testing.T) {
	srv, ed := newTestServer(t, Options{})
	rec := do(t, srv, http.MethodPost, "/title", `{"title":"Team Q3"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := ed.Snapshot().Title; got != "Team Q3" {
		t.Errorf("title = %q", got)
	}
}

func TestPostName(t *testing.T) {
	srv, ed := newTestServer(t, Options{})
	rec := do(t, srv, http.MethodPost, "/sectors/2/name", `{"sectors":{"s2":{"name":"Schlaf"}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got := ed.Snapshot().Sectors[2].Name; got != "Schlaf" {
		t.Errorf("name = %q", got)
	}

	if rec := do(t, srv, http.MethodPost, "/sectors/2/name", `{"sectors":{}}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing signal status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/sectors/x/name", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad index status = %d", rec.Code)
	}
}

func TestPostStrength_PreviewThenCommit(t *testing.T) {
	srv, ed := newTestServer(t, Options{})
	rec := do(t, srv, http.MethodPost, "/sectors/0/strength", `{"sectors":{"s0":{"strength":7}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "78%") {
		t.Errorf("readout patch missing preview percent:\n%s", rec.Body)
	}
	if ed.Preview()[0] != 7 {
		t.Errorf("preview = %v", ed.Preview())
	}

	deadline := time.Now().Add(2 * time.Second)
	for ed.Snapshot().Strengths[0] != 7 {
		if time.Now().After(deadline) {
			t.Fatal("strength never committed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPostStrength_StringValueAndErrors(t *testing.T) {
	srv, ed := newTestServer(t, Options{})
	if rec := do(t, srv, http.MethodPost, "/sectors/1/strength", `{"sectors":{"s1":{"strength":"3"}}}`); rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	ed.Flush()
	if got := ed.Snapshot().Strengths[1]; got != 3 {
		t.Errorf("strength = %d, want 3", got)
	}

	if rec := do(t, srv, http.MethodPost, "/sectors/9/strength", `{"sectors":{"s9":{"strength":3}}}`); rec.Code != http.StatusNotFound {
		t.Errorf("out of range status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/sectors/1/strength", `{"sectors":{"s1":{"strength":"high"}}}`); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric status = %d", rec.Code)
	}
}

func multipartIcon(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("icon", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &body, mw.FormDataContentType()
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPostIcon(t *testing.T) {
	srv, ed := newTestServer(t, Options{})

	body, ct := multipartIcon(t, "me.png", tinyPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/sectors/4/icon", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	ref := ed.Snapshot().Sectors[4].Icon
	if !ref.IsInline() || !strings.HasPrefix(string(ref), "data:image/png;base64,") {
		t.Errorf("icon = %s", ref)
	}

	body, ct = multipartIcon(t, "notes.txt", []byte("hello there"))
	req = httptest.NewRequest(http.MethodPost, "/sectors/4/icon", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("non-image status = %d", rec.Code)
	}
	if got := ed.Snapshot().Sectors[4].Icon; got != ref {
		t.Error("a rejected upload must not change the icon")
	}
}

func TestPostSync_NoSheet(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	if rec := do(t, srv, http.MethodPost, "/sync", ""); rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestPostSync(t *testing.T) {
	sheetSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("Section,Value\nBewegung,9\nUmwelt & Soziales,1\n"))
	}))
	defer sheetSrv.Close()

	var names []string
	for _, s := range model.DefaultSectors() {
		names = append(names, s.Name)
	}
	srv, ed := newTestServer(t, Options{Sheet: sheet.Source{URL: sheetSrv.URL, Sections: names, Fallback: 4}})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rec := do(t, srv, http.MethodPost, "/sync", ""); rec.Code != http.StatusOK {
				t.Errorf("status = %d", rec.Code)
			}
		}()
	}
	wg.Wait()

	want := []int{9, 4, 4, 4, 4, 1}
	got := ed.Snapshot().Strengths
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("strengths = %v, want %v", got, want)
			break
		}
	}

	if rec := do(t, srv, http.MethodGet, "/", ""); !strings.Contains(rec.Body.String(), "Sync from sheet") {
		t.Error("sync button missing with a sheet configured")
	}
}

func TestEvents_StreamsCommittedChanges(t *testing.T) {
	srv, ed := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type %q", ct)
	}

	lines := make(chan string, 256)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	waitFor := func(want string) {
		t.Helper()
		for {
			select {
			case l, ok := <-lines:
				if !ok {
					t.Fatalf("stream ended before %q", want)
				}
				if strings.Contains(l, want) {
					return
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %q", want)
			}
		}
	}

	waitFor(`id="sector-list"`)
	ed.SetTitle("Nachher")
	waitFor("Nachher")
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Error("expected error for nil editor")
	}
	ed := editor.New(model.DefaultRadar())
	opts := Options{}
	opts.Layout.MaxStrength = 9 // everything else zero
	if _, err := New(ed, opts); err == nil {
		t.Error("expected layout validation error")
	}
}

func TestNormalizeBase(t *testing.T) {
	cases := map[string]string{
		"":         "/assets/",
		"icons":    "/icons/",
		"/static":  "/static/",
		"/assets/": "/assets/",
	}
	for in, want := range cases {
		if got := normalizeBase(in); got != want {
			t.Errorf("normalizeBase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCORS(t *testing.T) {
	get := func(srv *Server, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/radar.svg", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		return rec
	}

	plain, _ := newTestServer(t, Options{})
	if h := get(plain, "https://intranet.example").Header().Get("Access-Control-Allow-Origin"); h != "" {
		t.Errorf("CORS should be off by default, got %q", h)
	}

	srv, _ := newTestServer(t, Options{AllowedOrigins: []string{"https://intranet.example"}})
	if h := get(srv, "https://intranet.example").Header().Get("Access-Control-Allow-Origin"); h != "https://intranet.example" {
		t.Errorf("allowed origin header = %q", h)
	}
	if h := get(srv, "https://elsewhere.example").Header().Get("Access-Control-Allow-Origin"); h != "" {
		t.Errorf("unlisted origin got %q", h)
	}
}
