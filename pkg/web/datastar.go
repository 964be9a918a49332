package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	ds "github.com/starfederation/datastar-go/datastar"

	"github.com/vanderheijden86/wellradar/pkg/debug"
	"github.com/vanderheijden86/wellradar/pkg/icon"
	"github.com/vanderheijden86/wellradar/pkg/model"
	"github.com/vanderheijden86/wellradar/pkg/sheet"
)

// handleEvents streams patches for every committed revision until the
// client goes away or the server stops.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	changes, cancel := s.editor.Subscribe()
	defer cancel()

	sse := ds.NewSSE(w, r)
	st := &streamState{}
	if err := s.patchRevision(sse, st); err != nil {
		log.Printf("web: initial patch: %v", err)
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := s.patchRevision(sse, st); err != nil {
				debug.Log("web: event stream closed: %v", err)
				return
			}
		}
	}
}

// streamState remembers what one client was last sent.
type streamState struct {
	names []string
}

// patchRevision sends the chart and strength signals. The sector form is
// re-sent only when the sector list itself changed, so text the user is
// typing is not overwritten on every slider commit.
func (s *Server) patchRevision(sse *ds.ServerSentEventGenerator, st *streamState) error {
	view, err := s.pageView("")
	if err != nil {
		return err
	}
	var buf strings.Builder
	if err := s.tmpl.ExecuteTemplate(&buf, "chart", view); err != nil {
		return err
	}

	names := make([]string, len(view.Sectors))
	for i, sec := range view.Sectors {
		names[i] = sec.Name
	}
	if st.names == nil || !slices.Equal(st.names, names) {
		if err := s.tmpl.ExecuteTemplate(&buf, "sector-list", view); err != nil {
			return err
		}
		st.names = names
		if err := sse.PatchElements(buf.String()); err != nil {
			return err
		}
		r := s.editor.Snapshot()
		return sse.MarshalAndPatchSignals(signalsFor(r, s.editor.Preview()))
	}

	for _, sec := range view.Sectors {
		if err := s.tmpl.ExecuteTemplate(&buf, "readout", sec); err != nil {
			return err
		}
	}
	if err := sse.PatchElements(buf.String()); err != nil {
		return err
	}
	return sse.MarshalAndPatchSignals(strengthSignals(s.editor.Preview()))
}

type strengthOnly struct {
	Strength int `json:"strength"`
}

func strengthSignals(preview []int) map[string]map[string]strengthOnly {
	out := make(map[string]strengthOnly, len(preview))
	for i, v := range preview {
		out[sectorKey(i)] = strengthOnly{Strength: v}
	}
	return map[string]map[string]strengthOnly{"sectors": out}
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	var sig pageSignals
	if err := ds.ReadSignals(r, &sig); err != nil {
		log.Printf("error reading signals: %s", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.editor.SetTitle(sig.Title)
	ds.NewSSE(w, r)
}

func (s *Server) handleName(w http.ResponseWriter, r *http.Request) {
	i, sig, ok := s.readSectorSignals(w, r)
	if !ok {
		return
	}
	if err := s.editor.RenameSector(i, sig.Name); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	ds.NewSSE(w, r)
}

// handleStrength records a slider position. The preview readout answers
// immediately; the chart follows once the commit delay passes.
func (s *Server) handleStrength(w http.ResponseWriter, r *http.Request) {
	i, sig, ok := s.readSectorSignals(w, r)
	if !ok {
		return
	}
	if err := s.editor.PreviewStrength(i, int(sig.Strength)); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	radar := s.editor.Snapshot()
	if i >= len(radar.Sectors) {
		// the sector list was replaced between the preview and now
		ds.NewSSE(w, r)
		return
	}
	view := s.sectorView(radar, i, radar.Sectors[i], s.editor.Preview())
	var buf strings.Builder
	if err := s.tmpl.ExecuteTemplate(&buf, "readout", view); err != nil {
		log.Printf("couldn't execute readout template %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	sse := ds.NewSSE(w, r)
	_ = sse.PatchElements(buf.String())
}

func (s *Server) handleIcon(w http.ResponseWriter, r *http.Request) {
	i, err := sectorIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}
	f, hdr, err := r.FormFile("icon")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing icon file")
		return
	}
	defer f.Close()

	if _, err := s.editor.UploadIcon(i, f, hdr.Filename); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	ds.NewSSE(w, r)
}

// handleSync pulls the sheet. Concurrent requests share one fetch.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.sheet.URL == "" {
		writeError(w, http.StatusConflict, sheet.ErrNoURL.Error())
		return
	}
	_, err, shared := s.syncGroup.Do("sync", func() (any, error) {
		// Other callers may be waiting on this fetch; do not let this
		// request's cancellation abort it for them.
		return nil, sheet.Sync(context.WithoutCancel(r.Context()), s.sheet, s.editor)
	})
	debug.LogIf(shared, "web: sync request joined an in-flight fetch")

	status := "Synced from sheet."
	if err != nil {
		log.Printf("wr: sheet sync failed, fallback applied: %v", err)
		status = "Sheet unavailable; showing fallback values."
	}
	var buf strings.Builder
	if err := s.tmpl.ExecuteTemplate(&buf, "status", status); err != nil {
		log.Printf("couldn't execute status template %s", err)
	}
	sse := ds.NewSSE(w, r)
	_ = sse.PatchElements(buf.String())
}

func (s *Server) readSectorSignals(w http.ResponseWriter, r *http.Request) (int, sectorSignals, bool) {
	i, err := sectorIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, sectorSignals{}, false
	}
	var sig pageSignals
	if err := ds.ReadSignals(r, &sig); err != nil {
		log.Printf("error reading signals: %s", err)
		writeError(w, http.StatusBadRequest, "invalid signals")
		return 0, sectorSignals{}, false
	}
	sec, ok := sig.Sectors[sectorKey(i)]
	if !ok {
		writeError(w, http.StatusBadRequest, "no signals for sector "+strconv.Itoa(i))
		return 0, sectorSignals{}, false
	}
	return i, sec, true
}

func sectorIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("sector index must be an integer")
	}
	return i, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, icon.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, icon.ErrNotImage):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}
