// SPDX-License-Identifier: MIT

package pentestws

import (
	"context"
	"net/http"
	"net/url"
)

// Engagement is a single assessment: the top-level container for hosts,
// findings and notes.
type Engagement struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	CreatedAt Timestamp `json:"created_at,omitzero"`
	Archived  Timestamp `json:"archived,omitzero"`
}

// Validate checks local invariants before any request is sent.
func (e *Engagement) Validate() error {
	if blank(e.Name) {
		return &ValidationError{Field: "name", Reason: reasonRequired}
	}
	if !validID(e.ID) {
		return &ValidationError{Field: "id", Reason: reasonID}
	}
	if !validID(e.ClientID) {
		return &ValidationError{Field: "client_id", Reason: reasonID}
	}
	return nil
}

// ListEngagements returns every engagement visible to the API key.
func (c *Client) ListEngagements(ctx context.Context) ([]Engagement, error) {
	var out []Engagement
	if err := c.do(ctx, http.MethodGet, "/e", "engagements.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Engagement fetches a single engagement by ID.
func (c *Client) Engagement(ctx context.Context, eid string) (*Engagement, error) {
	if !idPattern.MatchString(eid) {
		return nil, &ValidationError{Field: "eid", Reason: reasonID}
	}
	var out Engagement
	if err := c.do(ctx, http.MethodGet, "/e/"+url.PathEscape(eid), "engagements.get", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EngagementByName resolves an engagement by its display name. Names are not
// unique server-side; the first match wins.
func (c *Client) EngagementByName(ctx context.Context, name string) (*Engagement, error) {
	engagements, err := c.ListEngagements(ctx)
	if err != nil {
		return nil, err
	}
	for i := range engagements {
		if engagements[i].Name == name {
			return c.Engagement(ctx, engagements[i].ID)
		}
	}
	return nil, &APIError{Sentinel: ErrNotFound, Operation: "engagements.by_name", Msg: name}
}

// CreateEngagement creates e and stores the assigned ID back into it.
func (c *Client) CreateEngagement(ctx context.Context, e *Engagement) error {
	if err := e.Validate(); err != nil {
		return err
	}

	payload := *e
	payload.ID = ""
	payload.CreatedAt = Timestamp{}
	payload.Archived = Timestamp{}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/e", "engagements.create", &payload, &created); err != nil {
		return err
	}
	e.ID = created.ID
	return nil
}

// UpdateEngagement pushes local changes. Server-owned fields (id, created_at,
// archived) are never sent.
func (c *Client) UpdateEngagement(ctx context.Context, e *Engagement) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		return &ValidationError{Field: "id", Reason: reasonRequired}
	}

	payload := *e
	payload.ID = ""
	payload.CreatedAt = Timestamp{}
	payload.Archived = Timestamp{}

	return c.do(ctx, http.MethodPut, "/e/"+url.PathEscape(e.ID), "engagements.update", &payload, nil)
}

// DeleteEngagement removes an engagement and everything under it.
func (c *Client) DeleteEngagement(ctx context.Context, eid string) error {
	if !idPattern.MatchString(eid) {
		return &ValidationError{Field: "eid", Reason: reasonID}
	}
	return c.do(ctx, http.MethodDelete, "/e/"+url.PathEscape(eid), "engagements.delete", nil, nil)
}
