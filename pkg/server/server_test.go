package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/pipeline"
	"github.com/matzehuels/clishot/pkg/render"
	"github.com/matzehuels/clishot/pkg/storage"
)

func newTestServer(t *testing.T, store storage.Store) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(pipeline.NewRunner(nil, nil, nil), store, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/render", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/render: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := post(t, ts, `{"lines": [">> Build", "$ go test", "All tests passed"], "width": 800, "show_chrome": false}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got RenderResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == "" {
		t.Error("response has no id")
	}
	if got.Width != 800 {
		t.Errorf("width = %d, want 800", got.Width)
	}
	data, err := render.DecodeBase64([]byte(got.Image))
	if err != nil {
		t.Fatalf("image is not base64: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("image is not a PNG: %v", err)
	}
	if cfg.Width != got.Width || cfg.Height != got.Height {
		t.Errorf("PNG is %dx%d, response says %dx%d", cfg.Width, cfg.Height, got.Width, got.Height)
	}
}

func TestRenderErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"malformed", `{"lines": [`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", `{"lines": ["a"], "colour": 1}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no lines", `{"lines": []}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"negative width", `{"lines": ["a"], "width": -1}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad style", `{"lines": ["a"], "styles": [{"prefix": "", "color": {"r": 1}}]}`, http.StatusBadRequest, errors.ErrCodeInvalidStyle},
		{"save without store", `{"lines": ["a"], "save": true}`, http.StatusNotImplemented, errors.ErrCodeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var got errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Error != tt.code {
				t.Errorf("error = %q, want %q (%s)", got.Error, tt.code, got.Message)
			}
		})
	}
}

func TestRenderSaveAndGet(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, store)

	resp := post(t, ts, `{"lines": ["hello"], "save": true, "name": "demo"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got RenderResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got.StoredID, "demo_") {
		t.Fatalf("stored_id = %q, want demo_<timestamp>", got.StoredID)
	}

	get, err := http.Get(ts.URL + "/v1/renders/" + got.StoredID)
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", get.StatusCode)
	}
	if ct := get.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if _, err := png.Decode(get.Body); err != nil {
		t.Errorf("stored render is not a PNG: %v", err)
	}

	missing, err := http.Get(ts.URL + "/v1/renders/nope_2024-01-01_00-00-00")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", missing.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidImage, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
