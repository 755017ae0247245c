package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/datadiag/datadiag/internal/catalog"
	"github.com/datadiag/datadiag/internal/diag"
	apimw "github.com/datadiag/datadiag/internal/httpapi/middleware"
	"github.com/datadiag/datadiag/internal/payload"
	"github.com/datadiag/datadiag/internal/repo"
	"github.com/datadiag/datadiag/internal/repo/memory"
	"github.com/datadiag/datadiag/internal/runner"
)

func testServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	c := catalog.New(nil)
	c.AddSystem("demo", "demo system", "0.0.1")
	c.AddTest("demo", catalog.Test{
		Name:        "always_pass",
		Description: "passes on any input",
		Fn: func(payload.Payload) (diag.Result, error) {
			return diag.NewResult("always_pass", diag.StatusPass, "ok"), nil
		},
	})
	c.AddTest("demo", catalog.Test{
		Name:        "always_fail",
		Description: "fails on any input",
		Fn: func(payload.Payload) (diag.Result, error) {
			return diag.NewResult("always_fail", diag.StatusFail, "broken"), nil
		},
	})
	c.AddPlot("demo", catalog.Plot{
		Name:        "ok_plot",
		Description: "constant figure",
		Fn: func(payload.Payload) (any, error) {
			return map[string]string{"title": "demo"}, nil
		},
	})
	c.AddPlot("demo", catalog.Plot{
		Name:        "broken_plot",
		Description: "always errors",
		Fn: func(payload.Payload) (any, error) {
			return nil, errors.New("render exploded")
		},
	})
	c.AddReport("demo", catalog.Report{
		Name:        "ok_report",
		Description: "constant text",
		Fn: func(payload.Payload) (string, error) {
			return "# Report\nfine", nil
		},
	})

	store := memory.New()
	s := NewServer(zap.NewNop(), c, runner.New(c, nil), store)
	return s, store
}

func openRouter(s *Server) http.Handler {
	return s.Router(apimw.Keys{}, nil, 0, 0)
}

func seedDataset(t *testing.T, store *memory.Store) repo.DatasetID {
	t.Helper()
	d := &repo.Dataset{
		Name:  "demo.json",
		Shape: "object(1 keys)",
		Data:  payload.Object{"k": 1.0},
	}
	if err := store.Add(context.Background(), d); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return d.ID
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	rec := httptest.NewRecorder()
	openRouter(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestListSystems(t *testing.T) {
	s, _ := testServer(t)
	rec := httptest.NewRecorder()
	openRouter(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/systems", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}

	var out []struct {
		Name  string `json:"name"`
		Tests []struct {
			Name string `json:"name"`
		} `json:"tests"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Name != "demo" || len(out[0].Tests) != 2 {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestRun(t *testing.T) {
	s, store := testServer(t)
	id := seedDataset(t, store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/systems/demo/run?dataset="+string(id), nil)
	openRouter(s).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}

	var out struct {
		SystemName string        `json:"system_name"`
		Results    []diag.Result `json:"results"`
		PassCount  int           `json:"pass_count"`
		FailCount  int           `json:"fail_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.SystemName != "demo" || len(out.Results) != 2 {
		t.Fatalf("body=%s", rec.Body.String())
	}
	if out.PassCount != 1 || out.FailCount != 1 {
		t.Fatalf("counts: %+v", out)
	}
}

func TestRun_MissingDataset(t *testing.T) {
	s, _ := testServer(t)
	r := openRouter(s)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/systems/demo/run", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no dataset param: code=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/systems/demo/run?dataset=ghost", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown dataset: code=%d", rec.Code)
	}
}

func TestPlot(t *testing.T) {
	s, store := testServer(t)
	id := seedDataset(t, store)
	r := openRouter(s)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/systems/demo/plots/ok_plot?dataset="+string(id), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"title":"demo"`) {
		t.Fatalf("body=%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/systems/demo/plots/nope?dataset="+string(id), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown plot: code=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/systems/demo/plots/broken_plot?dataset="+string(id), nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("faulting plot: code=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "render exploded") {
		t.Fatalf("fault not surfaced: %s", rec.Body.String())
	}
}

func TestReport(t *testing.T) {
	s, store := testServer(t)
	id := seedDataset(t, store)
	r := openRouter(s)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/systems/demo/reports/ok_report?dataset="+string(id), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Fatalf("content type=%q", ct)
	}
	if !strings.Contains(rec.Body.String(), "# Report") {
		t.Fatalf("body=%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/systems/demo/reports/nope?dataset="+string(id), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown report: code=%d", rec.Code)
	}
}

func TestUploadDataset_RawBody(t *testing.T) {
	s, _ := testServer(t)
	r := openRouter(s)

	body := strings.NewReader("a,b\n1,2\n3,\n")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/datasets?name=data.csv", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}

	var out struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Shape string `json:"shape"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID == "" || out.Name != "data.csv" || out.Shape != "table(2x2)" {
		t.Fatalf("body=%s", rec.Body.String())
	}

	// uploaded datasets show up in the listing
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), out.ID) {
		t.Fatalf("listing: code=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUploadDataset_Multipart(t *testing.T) {
	s, _ := testServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "nums.json")
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprint(fw, `[{"a":1},{"a":2}]`)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	openRouter(s).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"shape":"table(2x1)"`) {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestUploadDataset_Errors(t *testing.T) {
	s, _ := testServer(t)
	r := openRouter(s)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/datasets", strings.NewReader("x")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name: code=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/datasets?name=bad.json", strings.NewReader("{nope")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unparseable body: code=%d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	s, store := testServer(t)
	id := seedDataset(t, store)
	keys := apimw.Keys{Public: []string{"pub"}, Admin: []string{"adm"}}
	r := s.Router(keys, nil, 0, 0)

	// healthz stays open
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: code=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/systems", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key: code=%d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/systems/demo/run?dataset="+string(id), nil)
	req.Header.Set("X-API-Key", "pub")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("public key on run: code=%d body=%s", rec.Code, rec.Body.String())
	}

	// public keys cannot upload
	req = httptest.NewRequest(http.MethodPost, "/api/datasets?name=x.csv", strings.NewReader("a\n1\n"))
	req.Header.Set("X-API-Key", "pub")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("public key on upload: code=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/datasets?name=x.csv", strings.NewReader("a\n1\n"))
	req.Header.Set("Authorization", "Bearer adm")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin key on upload: code=%d body=%s", rec.Code, rec.Body.String())
	}
}
