package dalleboard

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eringen/dalleboard/imagegen"
	"github.com/eringen/dalleboard/store"
)

type listResponse struct {
	Success bool         `json:"success"`
	Data    []store.Post `json:"data"`
	Message string       `json:"message"`
}

type createResponse struct {
	Success bool       `json:"success"`
	Data    store.Post `json:"data"`
	Message string     `json:"message"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

const validPost = `{"name":"Ann","prompt":"a cat in a hat","photo":"data:image/jpeg;base64,aGVsbG8="}`

func TestAPIGreetings(t *testing.T) {
	a := setupTestApp(t)

	rec := a.get("/api/v1")
	if rec.Code != http.StatusOK || rec.Body.String() != "Hello from DALL-E!" {
		t.Errorf("GET /api/v1 = %d %q", rec.Code, rec.Body.String())
	}
	rec = a.get("/api/v1/dalle")
	if rec.Code != http.StatusOK || rec.Body.String() != "Let's go DALL-E!" {
		t.Errorf("GET /api/v1/dalle = %d %q", rec.Code, rec.Body.String())
	}
}

func TestGenerateReturnsPhoto(t *testing.T) {
	a := setupTestApp(t)

	rec := a.postJSON("/api/v1/dalle", `{"prompt":"cat"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp generateResponse
	decode(t, rec, &resp)
	if resp.Photo != a.gen.photo {
		t.Errorf("photo = %q, want %q", resp.Photo, a.gen.photo)
	}
	if len(a.gen.prompts) != 1 || a.gen.prompts[0] != "cat" {
		t.Errorf("generator got prompts %v", a.gen.prompts)
	}
}

func TestGenerateAgainstOpenAIStub(t *testing.T) {
	image := base64.StdEncoding.EncodeToString([]byte("\xff\xd8\xff fake jpeg"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created":1,"data":[{"b64_json":"` + image + `"}]}`))
	}))
	defer srv.Close()

	gen, err := imagegen.NewOpenAI(imagegen.OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	a := setupTestApp(t, WithImageGenerator(gen))

	rec := a.postJSON("/api/v1/dalle", `{"prompt":"cat"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp generateResponse
	decode(t, rec, &resp)
	if _, err := base64.StdEncoding.DecodeString(resp.Photo); err != nil || resp.Photo == "" {
		t.Errorf("photo %q is not valid base64: %v", resp.Photo, err)
	}
}

func TestGenerateUpstreamMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Your request was rejected by the safety system.","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	gen, err := imagegen.NewOpenAI(imagegen.OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	a := setupTestApp(t, WithImageGenerator(gen))

	rec := a.postJSON("/api/v1/dalle", `{"prompt":"cat"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Your request was rejected by the safety system." {
		t.Errorf("body = %q", got)
	}
}

func TestGenerateUpstreamErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{}}`))
	}))
	defer srv.Close()

	gen, err := imagegen.NewOpenAI(imagegen.OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	a := setupTestApp(t, WithImageGenerator(gen))

	rec := a.postJSON("/api/v1/dalle", `{"prompt":"cat"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Body.String(); !strings.Contains(got, "502") {
		t.Errorf("body should describe the upstream status, got %q", got)
	}
}

func TestGenerateFallbackMessage(t *testing.T) {
	a := setupTestApp(t)
	a.gen.err = errUpstream

	rec := a.postJSON("/api/v1/dalle", `{"prompt":"cat"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Body.String() != errUpstream.Error() {
		t.Errorf("body = %q, want %q", rec.Body.String(), errUpstream.Error())
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	a := setupTestApp(t)

	for _, body := range []string{`{}`, `{"prompt":"   "}`} {
		rec := a.postJSON("/api/v1/dalle", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
	if a.gen.calls() != 0 {
		t.Errorf("generator should not be called, got %d calls", a.gen.calls())
	}
}

func TestCreatePostStoresHostedURL(t *testing.T) {
	a := setupTestApp(t)

	rec := a.postJSON("/api/v1/post", validPost)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp createResponse
	decode(t, rec, &resp)
	if !resp.Success {
		t.Error("expected success")
	}
	if resp.Data.ID == "" {
		t.Error("expected an id")
	}
	if !strings.HasPrefix(resp.Data.Photo, "https://") {
		t.Errorf("photo should be the hosted URL, got %q", resp.Data.Photo)
	}
	if len(a.host.uploads) != 1 || a.host.uploads[0] != "data:image/jpeg;base64,aGVsbG8=" {
		t.Errorf("unexpected uploads %v", a.host.uploads)
	}
}

func TestCreatePostUploadFailure(t *testing.T) {
	a := setupTestApp(t)
	a.host.uploadErr = errUpstream

	rec := a.postJSON("/api/v1/post", validPost)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp createResponse
	decode(t, rec, &resp)
	if resp.Success || !strings.Contains(resp.Message, errUpstream.Error()) {
		t.Errorf("unexpected response %+v", resp)
	}

	posts, err := a.Store.ListPosts(t.Context())
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("expected no stored posts, got %d", len(posts))
	}
}

func TestCreatePostMissingFields(t *testing.T) {
	a := setupTestApp(t)

	for _, body := range []string{
		`{"prompt":"p","photo":"data:image/jpeg;base64,aGVsbG8="}`,
		`{"name":"Ann","photo":"data:image/jpeg;base64,aGVsbG8="}`,
		`{"name":"Ann","prompt":"p"}`,
	} {
		rec := a.postJSON("/api/v1/post", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
		var resp createResponse
		decode(t, rec, &resp)
		if resp.Success || resp.Message == "" {
			t.Errorf("%s: unexpected response %+v", body, resp)
		}
	}
	if len(a.host.uploads) != 0 {
		t.Errorf("nothing should be uploaded, got %v", a.host.uploads)
	}
}

func TestCreatePostStoreFailureDeletesUpload(t *testing.T) {
	a := setupTestApp(t, WithStore(failingStore{Store: setupTestSQLite(t), err: errUpstream}))

	rec := a.postJSON("/api/v1/post", validPost)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if len(a.host.deleted) != 1 || a.host.deleted[0] != "asset-1" {
		t.Errorf("expected the orphaned upload to be deleted, got %v", a.host.deleted)
	}
}

func TestListPostsAfterTwoCreates(t *testing.T) {
	a := setupTestApp(t)

	rec := a.get("/api/v1/post")
	var resp listResponse
	decode(t, rec, &resp)
	if rec.Code != http.StatusOK || !resp.Success || len(resp.Data) != 0 {
		t.Fatalf("empty list: %d %+v", rec.Code, resp)
	}

	for _, name := range []string{"Ann", "Bob"} {
		body := strings.Replace(validPost, "Ann", name, 1)
		if rec := a.postJSON("/api/v1/post", body); rec.Code != http.StatusCreated {
			t.Fatalf("create %s: %d", name, rec.Code)
		}
	}

	rec = a.get("/api/v1/post")
	resp = listResponse{}
	decode(t, rec, &resp)
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(resp.Data))
	}
	names := map[string]bool{}
	for _, p := range resp.Data {
		names[p.Name] = true
	}
	if !names["Ann"] || !names["Bob"] {
		t.Errorf("expected both records, got %+v", resp.Data)
	}
}

func TestListPostsStoreFailure(t *testing.T) {
	a := setupTestApp(t, WithStore(store.Unavailable(errUpstream)))

	rec := a.get("/api/v1/post")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp listResponse
	decode(t, rec, &resp)
	if resp.Success || resp.Message == "" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestRandomPrompt(t *testing.T) {
	a := setupTestApp(t, WithPromptPicker(NewPromptPicker([]string{"one", "two"}, nil)))

	rec := a.get("/api/v1/prompt?current=one")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp promptResponse
	decode(t, rec, &resp)
	if resp.Prompt != "two" {
		t.Errorf("prompt = %q, want %q", resp.Prompt, "two")
	}

	a = setupTestApp(t, WithPromptPicker(NewPromptPicker([]string{"one"}, nil)))
	if rec := a.get("/api/v1/prompt?current=one"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 with no alternative, got %d", rec.Code)
	}
}
