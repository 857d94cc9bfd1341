package client

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is carried in the error.
const maxErrorBody = 4096

type (
	ResponseHandler struct{}

	// StatusError is returned for a non-2xx answer from the server.
	StatusError struct {
		Code int
		Body string
	}
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed: %d %s, body: %s", e.Code, http.StatusText(e.Code), e.Body)
}

func (h *ResponseHandler) Handle(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
