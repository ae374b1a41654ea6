package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/oron-mozes/creo-sub001/internal/realtime"
)

// pollResponse is the long-poll batch returned by the backend.
type pollResponse struct {
	Events []realtime.Envelope `json:"events"`
	Cursor string              `json:"cursor"`
}

// PollEvents blocks until realtime events are available and returns them
// with the cursor for the next call. Implements realtime.RestBridge.
func (c *Client) PollEvents(ctx context.Context, cursor string) ([]realtime.Envelope, string, error) {
	path := "/api/realtime/poll"
	if cursor != "" {
		path += "?cursor=" + url.QueryEscape(cursor)
	}

	var resp pollResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, cursor, err
	}
	return resp.Events, resp.Cursor, nil
}

// PushEvent delivers one outbound realtime envelope over REST.
// Implements realtime.RestBridge.
func (c *Client) PushEvent(ctx context.Context, env realtime.Envelope) error {
	return c.do(ctx, http.MethodPost, "/api/realtime/emit", env, nil)
}
