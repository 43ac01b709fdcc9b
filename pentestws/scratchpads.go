// SPDX-License-Identifier: MIT

package pentestws

import (
	"context"
	"net/http"
	"net/url"
)

// Scratchpad is a per-host working document, either a code buffer in one of
// the editor languages or a rich-text page.
type Scratchpad struct {
	ID       string `json:"id,omitempty"`
	HID      string `json:"hid,omitempty"`
	Title    string `json:"title"`
	Type     string `json:"type,omitempty"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Validate checks local invariants before any request is sent.
func (s *Scratchpad) Validate() error {
	if blank(s.Title) {
		return &ValidationError{Field: "title", Reason: reasonRequired}
	}
	if !validID(s.ID) {
		return &ValidationError{Field: "id", Reason: reasonID}
	}
	if !validID(s.HID) {
		return &ValidationError{Field: "hid", Reason: reasonID}
	}
	if !oneOf(s.Type, ScratchpadTypes) {
		return &ValidationError{Field: "type", Reason: `should be "code" or "rich"`}
	}
	if !oneOf(s.Language, ScratchpadLanguages) {
		return &ValidationError{Field: "language", Reason: "is not a supported editor language"}
	}
	return nil
}

// ListScratchpads returns the scratchpads on a host.
func (c *Client) ListScratchpads(ctx context.Context, hid string) ([]Scratchpad, error) {
	if !idPattern.MatchString(hid) {
		return nil, &ValidationError{Field: "hid", Reason: reasonID}
	}
	var out []Scratchpad
	if err := c.do(ctx, http.MethodGet, "/hosts/"+url.PathEscape(hid)+"/scratchpads", "scratchpads.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Scratchpad fetches a single scratchpad by ID.
func (c *Client) Scratchpad(ctx context.Context, sid string) (*Scratchpad, error) {
	if !idPattern.MatchString(sid) {
		return nil, &ValidationError{Field: "sid", Reason: reasonID}
	}
	var out Scratchpad
	if err := c.do(ctx, http.MethodGet, "/scratchpads/"+url.PathEscape(sid), "scratchpads.get", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateScratchpad creates s on the given host and stores the assigned ID
// back into it.
func (c *Client) CreateScratchpad(ctx context.Context, hid string, s *Scratchpad) error {
	if !idPattern.MatchString(hid) {
		return &ValidationError{Field: "hid", Reason: reasonID}
	}
	if err := s.Validate(); err != nil {
		return err
	}

	payload := *s
	payload.ID = ""
	payload.HID = ""

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/hosts/"+url.PathEscape(hid)+"/scratchpads", "scratchpads.create", &payload, &created); err != nil {
		return err
	}
	s.ID = created.ID
	s.HID = hid
	return nil
}

// UpdateScratchpad pushes local changes to an existing scratchpad.
func (c *Client) UpdateScratchpad(ctx context.Context, s *Scratchpad) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ID == "" {
		return &ValidationError{Field: "id", Reason: reasonRequired}
	}

	payload := *s
	payload.ID = ""
	payload.HID = ""

	return c.do(ctx, http.MethodPut, "/scratchpads/"+url.PathEscape(s.ID), "scratchpads.update", &payload, nil)
}

// DeleteScratchpad removes a scratchpad.
func (c *Client) DeleteScratchpad(ctx context.Context, sid string) error {
	if !idPattern.MatchString(sid) {
		return &ValidationError{Field: "sid", Reason: reasonID}
	}
	return c.do(ctx, http.MethodDelete, "/scratchpads/"+url.PathEscape(sid), "scratchpads.delete", nil, nil)
}
