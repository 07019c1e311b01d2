package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 512

type httpSource struct {
	name    string
	baseURL string
	session *http.Client
}

func newHTTPSource(name, baseURL string, session *http.Client) httpSource {
	if session == nil {
		session = http.DefaultClient
	}
	return httpSource{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
	}
}

func (s httpSource) Name() string {
	return s.name
}

func (s httpSource) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (s httpSource) do(req *http.Request) (*http.Response, error) {
	resp, err := s.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// getJSON executes req and decodes the body into out.
func (s httpSource) getJSON(req *http.Request, out any) error {
	resp, err := s.do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode body: %v", ErrMalformedResponse, err)
	}
	return nil
}
