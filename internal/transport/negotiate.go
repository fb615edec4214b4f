package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// NegotiateResponse mirrors the SignalR negotiate endpoint's response body.
// Only Error is consulted by Negotiate; per the hub client's documented
// non-goals, no redirect/transport-selection logic reads URL or
// AvailableTransports; a direct WebSocket connect to the configured socket
// URL always follows a successful negotiate.
type NegotiateResponse struct {
	ConnectionID        string               `json:"connectionId"`
	AvailableTransports []AvailableTransport `json:"availableTransports"`
	URL                 string               `json:"url"`
	AccessToken         string               `json:"accessToken"`
	Error               string               `json:"error"`
}

// AvailableTransport describes one transport option offered by the server.
type AvailableTransport struct {
	Transport        string   `json:"transport"`
	TransferFormats  []string `json:"transferFormats"`
}

// NegotiateOptions configures a Negotiate call.
type NegotiateOptions struct {
	URL           string
	AuthorizationHeader string // full "Basic ..." / "Bearer ..." value, or empty
	HTTPClient    *http.Client
}

// Negotiate performs the HTTP negotiate exchange the hub client performs
// before opening its WebSocket, restoring the step the original
// implementation's connect_internal always runs first. A non-2xx response,
// or a response body carrying a non-empty Error field, aborts connection
// establishment before any socket is opened.
func Negotiate(ctx context.Context, opts NegotiateOptions) (*NegotiateResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, nil)
	if err != nil {
		return nil, &ConnectError{Reason: "building negotiate request", Cause: err}
	}
	if opts.AuthorizationHeader != "" {
		req.Header.Set("Authorization", opts.AuthorizationHeader)
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ConnectError{Reason: "negotiate request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectError{Reason: "reading negotiate response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ConnectError{Reason: "negotiate returned status " + resp.Status}
	}

	var negotiated NegotiateResponse
	if err := json.Unmarshal(body, &negotiated); err != nil {
		return nil, &ConnectError{Reason: "decoding negotiate response", Cause: err}
	}
	if negotiated.Error != "" {
		return nil, &ConnectError{Reason: "negotiate error: " + negotiated.Error}
	}
	return &negotiated, nil
}
