package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/datadiag/datadiag/internal/catalog"
	"github.com/datadiag/datadiag/internal/diag"
	"github.com/datadiag/datadiag/internal/payload"
	"github.com/datadiag/datadiag/internal/repo"
	"github.com/datadiag/datadiag/internal/runner"
)

const maxUploadBytes = 32 << 20 // 32 MB

type entryView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type systemView struct {
	catalog.SystemInfo
	Tests   []entryView `json:"tests"`
	Plots   []entryView `json:"plots"`
	Reports []entryView `json:"reports"`
}

func (s *Server) handleListSystems(w http.ResponseWriter, r *http.Request) {
	systems := s.Catalog.Systems()
	names := make([]string, 0, len(systems))
	for name := range systems {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]systemView, 0, len(names))
	for _, name := range names {
		out = append(out, systemView{
			SystemInfo: systems[name],
			Tests:      testViews(s.Catalog.Tests(name)),
			Plots:      plotViews(s.Catalog.Plots(name)),
			Reports:    reportViews(s.Catalog.Reports(name)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	ds, err := s.Datasets.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// handleUploadDataset accepts either a multipart form with a "file" part
// or a raw body with ?name= giving the file name for shape sniffing.
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	name, reader, cleanup, err := uploadSource(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	data, err := payload.Decode(name, reader)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not parse data: "+err.Error())
		return
	}

	d := &repo.Dataset{
		Name:      name,
		Shape:     payload.Describe(data),
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Datasets.Add(r.Context(), d); err != nil {
		writeError(w, http.StatusInternalServerError, "could not store dataset")
		return
	}

	s.Logger.Info("dataset_uploaded",
		zap.String("id", string(d.ID)),
		zap.String("name", d.Name),
		zap.String("shape", d.Shape),
	)
	writeJSON(w, http.StatusOK, d)
}

func uploadSource(r *http.Request) (name string, reader io.Reader, cleanup func(), err error) {
	cleanup = func() {}
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		var f multipart.File
		var hdr *multipart.FileHeader
		f, hdr, err = r.FormFile("file")
		if err != nil {
			return "", nil, cleanup, errors.New("missing file part")
		}
		return hdr.Filename, f, func() { _ = f.Close() }, nil
	}
	name = r.URL.Query().Get("name")
	if name == "" {
		return "", nil, cleanup, errors.New("missing name parameter")
	}
	return name, r.Body, cleanup, nil
}

// summaryView adds the derived counts to the wire form of a summary.
type summaryView struct {
	diag.Summary
	PassCount    int `json:"pass_count"`
	FailCount    int `json:"fail_count"`
	WarningCount int `json:"warning_count"`
	ErrorCount   int `json:"error_count"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	system := chi.URLParam(r, "system")
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}

	summary := s.Runner.RunDiagnostics(r.Context(), system, d.Data)
	writeJSON(w, http.StatusOK, summaryView{
		Summary:      summary,
		PassCount:    summary.PassCount(),
		FailCount:    summary.FailCount(),
		WarningCount: summary.WarningCount(),
		ErrorCount:   summary.ErrorCount(),
	})
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	system := chi.URLParam(r, "system")
	name := chi.URLParam(r, "name")
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}

	fig, err := s.Runner.GeneratePlot(r.Context(), system, name, d.Data)
	if err != nil {
		if runner.IsNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.Logger.Warn("plot_error",
			zap.String("system", system),
			zap.String("plot", name),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "plot failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fig)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	system := chi.URLParam(r, "system")
	name := chi.URLParam(r, "name")
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}

	text, err := s.Runner.GenerateReport(r.Context(), system, name, d.Data)
	if err != nil {
		if runner.IsNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.Logger.Warn("report_error",
			zap.String("system", system),
			zap.String("report", name),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "report failed: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

// dataset resolves the ?dataset= query parameter, writing the error
// response itself when the lookup fails.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*repo.Dataset, bool) {
	id := r.URL.Query().Get("dataset")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing dataset parameter")
		return nil, false
	}
	d, err := s.Datasets.Get(r.Context(), repo.DatasetID(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown dataset "+id)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "dataset lookup failed")
		return nil, false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func testViews(ts []catalog.Test) []entryView {
	out := make([]entryView, len(ts))
	for i, t := range ts {
		out[i] = entryView{Name: t.Name, Description: t.Description}
	}
	return out
}

func plotViews(ps []catalog.Plot) []entryView {
	out := make([]entryView, len(ps))
	for i, p := range ps {
		out[i] = entryView{Name: p.Name, Description: p.Description}
	}
	return out
}

func reportViews(rs []catalog.Report) []entryView {
	out := make([]entryView, len(rs))
	for i, r := range rs {
		out[i] = entryView{Name: r.Name, Description: r.Description}
	}
	return out
}
