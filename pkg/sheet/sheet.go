// Package sheet pulls strength values from a published two-column
// spreadsheet (section, value). Rows that do not match a known section or
// do not parse are skipped; sections without a row get the fallback value.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/vanderheijden86/wellradar/pkg/debug"
	"github.com/vanderheijden86/wellradar/pkg/metrics"
	"github.com/vanderheijden86/wellradar/pkg/model"
)

// Format names the wire format of the published sheet.
type Format string

const (
	FormatInfer Format = ""
	FormatCSV   Format = "csv"
	FormatHTML  Format = "html"
)

// maxBody bounds how much of a response is read.
const maxBody = 4 << 20

// ErrNoURL is returned by Fetch when the source has no URL.
var ErrNoURL = errors.New("sheet: no URL configured")

// Source describes one published sheet.
type Source struct {
	URL         string
	Format      Format
	Sections    []string // known section identifiers, in sector order
	Fallback    int      // strength for sections without a usable row
	MaxStrength int
	Client      *http.Client
}

// Result holds the values that matched known sections.
type Result struct {
	Values  map[string]int
	Matched int
	Fetched time.Time
}

// Fetch performs one GET and parses the body. There is no retry; callers
// bound the request through ctx.
func (s Source) Fetch(ctx context.Context) (Result, error) {
	defer debug.LogEnterExit("sheet.Fetch")()
	defer metrics.Timer(metrics.SheetFetch)()

	if s.URL == "" {
		return Result{}, ErrNoURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("sheet: build request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("sheet: fetch %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("sheet: fetch %s: status %s", s.URL, resp.Status)
	}

	body := io.LimitReader(resp.Body, maxBody)
	format := s.Format
	if format == FormatInfer {
		format = inferFormat(resp.Header.Get("Content-Type"), s.URL)
	}

	var rows [][]string
	switch format {
	case FormatHTML:
		rows, err = parseHTMLRows(body)
	case FormatCSV:
		rows, err = parseCSVRows(body)
	default:
		return Result{}, fmt.Errorf("sheet: unknown format %q", format)
	}
	if err != nil {
		return Result{}, err
	}

	res := s.match(rows)
	debug.Log("sheet: %d of %d sections matched from %s", res.Matched, len(s.Sections), s.URL)
	return res, nil
}

func inferFormat(contentType, url string) Format {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "text/html" {
		return FormatHTML
	}
	if strings.Contains(url, "output=html") || strings.HasSuffix(url, "/pubhtml") {
		return FormatHTML
	}
	return FormatCSV
}

// match applies the header/known-section/integer rules. The first row is
// always the header.
func (s Source) match(rows [][]string) Result {
	known := make(map[string]bool, len(s.Sections))
	for _, name := range s.Sections {
		known[name] = true
	}
	max := s.MaxStrength
	if max < 1 {
		max = model.DefaultMaxStrength
	}

	res := Result{Values: make(map[string]int), Fetched: time.Now()}
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if !known[name] {
			continue
		}
		v, ok := parseValue(row[1])
		if !ok {
			continue
		}
		if _, dup := res.Values[name]; !dup {
			res.Matched++
		}
		res.Values[name] = model.ClampStrength(v, max)
	}
	return res
}

// Vector lines res up with the known sections, using the fallback for gaps.
func (s Source) Vector(res Result) []int {
	out := make([]int, len(s.Sections))
	for i, name := range s.Sections {
		if v, ok := res.Values[name]; ok {
			out[i] = v
		} else {
			out[i] = s.fallback()
		}
	}
	return out
}

// FallbackVector is what the radar shows when a fetch fails.
func (s Source) FallbackVector() []int {
	out := make([]int, len(s.Sections))
	for i := range out {
		out[i] = s.fallback()
	}
	return out
}

func (s Source) fallback() int {
	max := s.MaxStrength
	if max < 1 {
		max = model.DefaultMaxStrength
	}
	return model.ClampStrength(s.Fallback, max)
}

// Target receives synced strengths by sector index.
type Target interface {
	ApplyStrengths(values map[int]int)
}

// Sync fetches src and applies the result to target. On any failure the
// fallback vector is applied instead and the error is returned for logging.
func Sync(ctx context.Context, src Source, target Target) error {
	res, err := src.Fetch(ctx)
	vec := src.Vector(res)
	if err != nil {
		metrics.SheetFallbacks.Inc()
		vec = src.FallbackVector()
	}
	values := make(map[int]int, len(vec))
	for i, v := range vec {
		values[i] = v
	}
	target.ApplyStrengths(values)
	return err
}
