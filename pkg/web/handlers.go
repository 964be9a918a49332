package web

import (
	"bytes"
	"log"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/wellradar/pkg/export"
	"github.com/vanderheijden86/wellradar/pkg/metrics"
	"github.com/vanderheijden86/wellradar/pkg/version"
)

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Revision uint64 `json:"revision"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Version:  version.Version,
		Revision: s.editor.Revision(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Snapshot())
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	view, err := s.pageView("")
	if err != nil {
		log.Printf("web: building page: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index", view); err != nil {
		log.Printf("couldn't execute template for index %s", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (s *Server) handleSVG(w http.ResponseWriter, _ *http.Request) {
	r, frame := s.frame()
	var buf bytes.Buffer
	err := export.RenderSVG(&buf, frame, export.SVGOptions{
		AssetBase: s.assetBase,
		Title:     r.Title,
		Padding:   export.DefaultPadding,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (s *Server) handlePNG(w http.ResponseWriter, r *http.Request) {
	scale := s.pngScale
	if q := r.URL.Query().Get("scale"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || v <= 0 || v > 16 {
			writeError(w, http.StatusBadRequest, "scale must be a number in (0, 16]")
			return
		}
		scale = v
	}
	_, frame := s.frame()
	var buf bytes.Buffer
	err := export.RenderPNG(&buf, frame, export.PNGOptions{
		Scale:   scale,
		Assets:  s.assets,
		Padding: export.DefaultPadding,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (s *Server) handleLayout(w http.ResponseWriter, _ *http.Request) {
	_, frame := s.frame()
	data, err := export.MarshalLayout(frame)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data) //nolint:errcheck
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	r, frame := s.frame()
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(export.GenerateMarkdown(r, frame))) //nolint:errcheck
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
