package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// request performs a GET and returns the raw response body.
func (api *API) request(ctx context.Context, op string, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't instantiate http request: %w", err)
	}

	return api.do(op, req)
}

// sendJSON performs a mutating call (POST/PUT) with a JSON payload.
func (api *API) sendJSON(ctx context.Context, op, method string, u *url.URL, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't instantiate http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return api.do(op, req)
}

// sendFile performs a multipart upload of one file.
func (api *API) sendFile(ctx context.Context, op string, u *url.URL, filename string, contents io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't create multipart body: %w", err)
	}
	if _, err := io.Copy(part, contents); err != nil {
		return nil, fmt.Errorf("confluence: couldn't read attachment contents: %w", err)
	}
	if err := w.WriteField("minorEdit", "true"); err != nil {
		return nil, fmt.Errorf("confluence: couldn't write multipart field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("confluence: couldn't finalise multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &buf)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't instantiate http request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	// Without this header Confluence rejects multipart posts as potential
	// XSRF.
	req.Header.Set("X-Atlassian-Token", "nocheck")

	return api.do(op, req)
}

// do sends the request and classifies the response.  Transport failures and
// server-side 5xxs come back as *TransientError; auth failures as
// ErrUnauthorized; everything else unexpected as *apiStatusError for the
// caller to translate.
func (api *API) do(op string, req *http.Request) ([]byte, error) {
	req.Header.Add("Accept", "application/json, */*")
	req.Header.Set("Authorization", "Bearer "+api.token)

	response, err := api.Client.Do(req)
	if err != nil {
		return nil, &TransientError{Op: op, Err: err}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't read http response body: %w", err)
	}

	if err := response.Body.Close(); err != nil {
		return nil, fmt.Errorf("confluence: couldn't close response body: %w", err)
	}

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		return body, nil
	case response.StatusCode == http.StatusUnauthorized,
		response.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case response.StatusCode >= 500:
		return nil, &TransientError{
			Op:  op,
			Err: fmt.Errorf("server error: %s", response.Status),
		}
	}

	return nil, &apiStatusError{
		StatusCode: response.StatusCode,
		Status:     response.Status,
		Body:       string(body),
	}
}

// statusCode digs the HTTP status out of an error, or 0 if it wasn't an
// unexpected-status error.
func statusCode(err error) int {
	var se *apiStatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
