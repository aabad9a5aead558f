package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v3/recorder"
)

func replayAPI(t *testing.T, cassette string) *API {
	t.Helper()

	r, err := recorder.NewWithOptions(&recorder.Options{
		CassetteName:       cassette,
		Mode:               recorder.ModeReplayOnly,
		SkipRequestLatency: true,
	})
	if err != nil {
		t.Fatalf("couldn't open cassette %s: %v", cassette, err)
	}
	t.Cleanup(func() {
		if err := r.Stop(); err != nil {
			t.Errorf("couldn't stop recorder: %v", err)
		}
	})

	api, err := NewAPI("https://wiki.example.com", "test-token")
	if err != nil {
		t.Fatalf("NewAPI: %v", err)
	}
	api.Client = r.GetDefaultClient()

	return api
}

func TestFindPageByTitle(t *testing.T) {
	api := replayAPI(t, "fixtures/find-page")

	page, err := api.FindPageByTitle(context.Background(), "DOC", "Publishing Guide")
	if err != nil {
		t.Fatalf("FindPageByTitle: %v", err)
	}

	if page.ID != "18350081" {
		t.Errorf("expected page ID 18350081, got %q", page.ID)
	}
	if page.Version == nil || page.Version.Number != 4 {
		t.Errorf("expected version 4, got %+v", page.Version)
	}
}

func TestFindPageByTitleAbsent(t *testing.T) {
	api := replayAPI(t, "fixtures/find-page")

	_, err := api.FindPageByTitle(context.Background(), "DOC", "No Such Page")

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Kind != "page" || notFound.Key != "No Such Page" {
		t.Errorf("unexpected NotFoundError contents: %+v", notFound)
	}
}

func TestCreatePage(t *testing.T) {
	api := replayAPI(t, "fixtures/create-page")

	page, err := api.CreatePage(context.Background(), "DOC", "18350080", "Release Notes", "<p>hi</p>")
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	if page.ID != "18350099" {
		t.Errorf("expected page ID 18350099, got %q", page.ID)
	}
	if page.Version == nil || page.Version.Number != 1 {
		t.Errorf("expected version 1, got %+v", page.Version)
	}
}

func testAPI(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api, err := NewAPI(server.URL, "test-token")
	if err != nil {
		t.Fatalf("NewAPI: %v", err)
	}

	return api
}

func TestUnauthorizedResponses(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		api := testAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})

		_, err := api.CurrentUser(context.Background())
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("status %d: expected ErrUnauthorized, got %v", code, err)
		}
	}
}

func TestSpaceNotFound(t *testing.T) {
	api := testAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"statusCode":404}`, http.StatusNotFound)
	})

	_, err := api.FindSpace(context.Background(), "NOPE")

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Kind != "space" || notFound.Key != "NOPE" {
		t.Errorf("unexpected NotFoundError contents: %+v", notFound)
	}
}

func TestUpdatePageVersionConflict(t *testing.T) {
	api := testAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Version must be incremented on update"}`, http.StatusConflict)
	})

	_, err := api.UpdatePage(context.Background(), "123", 4, "Title", "<p>x</p>")

	var conflict *VersionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected VersionConflictError, got %v", err)
	}
	if conflict.PageID != "123" || conflict.ExpectedVersion != 4 {
		t.Errorf("unexpected conflict contents: %+v", conflict)
	}
}

func TestUploadAttachmentConflict(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusConflict} {
		api := testAPI(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"Cannot add a new attachment with same file name"}`, code)
		})

		_, err := api.UploadAttachment(context.Background(), "123", "chart.png", strings.NewReader("png"))

		var conflict *AttachmentConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("status %d: expected AttachmentConflictError, got %v", code, err)
		}
		if conflict.Filename != "chart.png" {
			t.Errorf("unexpected conflict contents: %+v", conflict)
		}
	}
}

func TestUploadAttachmentSendsMultipart(t *testing.T) {
	var gotToken, gotContentType string
	api := testAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Atlassian-Token")
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("couldn't parse multipart body: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("no file part in upload: %v", err)
		}
		w.Write([]byte(`{"results":[{"id":"att1","title":"chart.png"}],"size":1}`))
	})

	att, err := api.UploadAttachment(context.Background(), "123", "chart.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("UploadAttachment: %v", err)
	}

	if att.ID != "att1" {
		t.Errorf("expected attachment att1, got %+v", att)
	}
	if gotToken != "nocheck" {
		t.Errorf("expected X-Atlassian-Token: nocheck, got %q", gotToken)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("expected multipart content type, got %q", gotContentType)
	}
}

func TestAddLabels(t *testing.T) {
	var gotPath string
	var gotLabels []Label
	api := testAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotLabels); err != nil {
			t.Errorf("bad label payload: %v", err)
		}
		w.Write([]byte(`{"results":[{"prefix":"global","name":"howto"}],"size":1}`))
	})

	if err := api.AddLabels(context.Background(), "123", []string{"howto", "docs"}); err != nil {
		t.Fatalf("AddLabels: %v", err)
	}

	if gotPath != "/rest/api/content/123/label" {
		t.Errorf("wrong endpoint %s", gotPath)
	}
	if len(gotLabels) != 2 || gotLabels[0].Prefix != "global" || gotLabels[1].Name != "docs" {
		t.Errorf("unexpected payload %+v", gotLabels)
	}
}

func TestAddLabelsEmptyIsNoRequest(t *testing.T) {
	var calls int
	api := testAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	if err := api.AddLabels(context.Background(), "123", nil); err != nil {
		t.Fatalf("AddLabels: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no request for an empty label set, got %d", calls)
	}
}

func TestLookupRetriesServerErrors(t *testing.T) {
	var calls int
	api := testAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":1,"key":"DOC","name":"Docs","type":"global"}`))
	})

	space, err := api.FindSpace(context.Background(), "DOC")
	if err != nil {
		t.Fatalf("FindSpace: %v", err)
	}

	if space.Key != "DOC" {
		t.Errorf("unexpected space: %+v", space)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestMutationsAreNotRetried(t *testing.T) {
	var calls int
	api := testAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := api.CreatePage(context.Background(), "DOC", "", "Title", "<p>x</p>")

	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("create must be sent exactly once, got %d attempts", calls)
	}
}

func TestRetryGivesUpAfterAttempts(t *testing.T) {
	var calls int
	err := retryLookup(context.Background(), func() error {
		calls++
		return &TransientError{Op: "find-page", Err: errors.New("connection reset")}
	})

	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError after exhaustion, got %v", err)
	}
	if calls != lookupAttempts {
		t.Errorf("expected %d attempts, got %d", lookupAttempts, calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	var calls int
	permanent := errors.New("no such host header")
	err := retryLookup(context.Background(), func() error {
		calls++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("expected the permanent error back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("permanent errors must not be retried, got %d attempts", calls)
	}
}

func TestNewAPIValidation(t *testing.T) {
	if _, err := NewAPI("", "tok"); err == nil {
		t.Error("expected error for empty base URL")
	}
	if _, err := NewAPI("https://wiki.example.com", ""); err == nil {
		t.Error("expected error for empty token")
	}
	if _, err := NewAPI("ftp://wiki.example.com", "tok"); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestResolveEndpointKeepsBasePath(t *testing.T) {
	api, err := NewAPI("https://example.atlassian.net/wiki", "tok")
	if err != nil {
		t.Fatalf("NewAPI: %v", err)
	}

	ep, err := api.contentEndpoint(nil)
	if err != nil {
		t.Fatalf("contentEndpoint: %v", err)
	}

	if got := ep.String(); got != "https://example.atlassian.net/wiki/rest/api/content" {
		t.Errorf("base path lost: %s", got)
	}
}
