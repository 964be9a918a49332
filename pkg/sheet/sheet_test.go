package sheet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/vanderheijden86/wellradar/pkg/model"
)

var sections = []string{"Bewegung", "Ernährung & Genuss", "Stress & Erholung", "Geist & Emotion", "Lebenssinn & -qualität", "Umwelt & Soziales"}

func serve(t *testing.T, contentType, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func source(url string) Source {
	return Source{URL: url, Sections: sections, Fallback: 5, MaxStrength: 9}
}

func TestFetch_CSV(t *testing.T) {
	body := "section,value\n" +
		"Bewegung,7\n" +
		"Stress & Erholung, 2 \n" +
		"Unbekannt,4\n" +
		"bewegung,1\n" +
		"Geist & Emotion,lots\n" +
		"Umwelt & Soziales,14\n" +
		"lonely\n"
	srv := serve(t, "text/csv", body, nil)

	res, err := source(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := map[string]int{"Bewegung": 7, "Stress & Erholung": 2, "Umwelt & Soziales": 9}
	if !reflect.DeepEqual(res.Values, want) {
		t.Errorf("values = %v, want %v", res.Values, want)
	}
	if res.Matched != 3 {
		t.Errorf("matched = %d", res.Matched)
	}
}

func TestVector_ThreeOfSixFallBack(t *testing.T) {
	body := "section,value\nBewegung,1\nGeist & Emotion,8\nUmwelt & Soziales,3\n"
	srv := serve(t, "text/csv; charset=utf-8", body, nil)
	src := source(srv.URL)

	res, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	got := src.Vector(res)
	want := []int{1, 5, 5, 8, 5, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Vector = %v, want %v", got, want)
	}
}

func TestFetch_HeaderRowIsNeverData(t *testing.T) {
	srv := serve(t, "text/csv", "Bewegung,2\nBewegung,6\n", nil)
	res, err := source(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Values["Bewegung"] != 6 {
		t.Errorf("first row must be treated as header, got %v", res.Values)
	}
}

func TestFetch_HTMLTable(t *testing.T) {
	page := `<html><body>
<table>
  <tr><th></th><th>A</th><th>B</th></tr>
  <tr><th>1</th><td>section</td><td>value</td></tr>
  <tr><th>2</th><td>Bewegung</td><td>4</td></tr>
  <tr><th>3</th><td>Ernährung &amp; Genuss</td><td>6</td></tr>
</table>
<table><tr><td>Bewegung</td><td>1</td></tr></table>
</body></html>`
	srv := serve(t, "text/html; charset=utf-8", page, nil)

	res, err := source(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := map[string]int{"Bewegung": 4, "Ernährung & Genuss": 6}
	if !reflect.DeepEqual(res.Values, want) {
		t.Errorf("values = %v, want %v", res.Values, want)
	}
}

func TestFetch_HTMLWithoutTable(t *testing.T) {
	srv := serve(t, "text/html", "<p>nothing here</p>", nil)
	if _, err := source(srv.URL).Fetch(context.Background()); err == nil {
		t.Error("expected error for page without a table")
	}
}

func TestFetch_Errors(t *testing.T) {
	if _, err := (Source{}).Fetch(context.Background()); !errors.Is(err, ErrNoURL) {
		t.Errorf("expected ErrNoURL, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	if _, err := source(srv.URL).Fetch(context.Background()); err == nil {
		t.Error("expected error for 404")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := source(srv.URL).Fetch(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}

type recorder struct {
	got map[int]int
}

func (r *recorder) ApplyStrengths(v map[int]int) { r.got = v }

func TestSync_AppliesFallbackOnFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := &recorder{}
	err := Sync(context.Background(), source(srv.URL), rec)
	if err == nil {
		t.Fatal("expected the fetch error to be returned")
	}
	if hits.Load() != 1 {
		t.Errorf("expected exactly one request, got %d", hits.Load())
	}
	want := map[int]int{0: 5, 1: 5, 2: 5, 3: 5, 4: 5, 5: 5}
	if !reflect.DeepEqual(rec.got, want) {
		t.Errorf("applied %v, want fallback %v", rec.got, want)
	}
}

func TestSync_AppliesFetchedVector(t *testing.T) {
	srv := serve(t, "text/csv", "section,value\nStress & Erholung,0\n", nil)
	rec := &recorder{}
	if err := Sync(context.Background(), source(srv.URL), rec); err != nil {
		t.Fatal(err)
	}
	if rec.got[2] != 0 || rec.got[0] != 5 || len(rec.got) != 6 {
		t.Errorf("applied %v", rec.got)
	}
}

func TestFallbackVector_Clamped(t *testing.T) {
	src := Source{Sections: []string{"a", "b"}, Fallback: 20}
	if got := src.FallbackVector(); !reflect.DeepEqual(got, []int{model.DefaultMaxStrength, model.DefaultMaxStrength}) {
		t.Errorf("FallbackVector = %v", got)
	}
}

func TestInferFormat(t *testing.T) {
	cases := []struct {
		ct, url string
		want    Format
	}{
		{"text/html; charset=utf-8", "https://x/pub", FormatHTML},
		{"text/csv", "https://x/pub?output=csv", FormatCSV},
		{"", "https://docs.example/sheet/pubhtml", FormatHTML},
		{"application/octet-stream", "https://x/data", FormatCSV},
	}
	for _, tc := range cases {
		if got := inferFormat(tc.ct, tc.url); got != tc.want {
			t.Errorf("inferFormat(%q, %q) = %q, want %q", tc.ct, tc.url, got, tc.want)
		}
	}
}
