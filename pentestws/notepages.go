// SPDX-License-Identifier: MIT

package pentestws

import (
	"context"
	"net/http"
	"net/url"
)

// NotePage is a free-form note attached to an engagement ("e"), a host
// ("hosts") or a port ("ports").
type NotePage struct {
	ID         string `json:"id,omitempty"`
	ObjectID   string `json:"oid,omitempty"`
	ObjectType string `json:"otype,omitempty"`
	Title      string `json:"title"`
	Content    string `json:"content,omitempty"`
}

// Validate checks local invariants before any request is sent.
func (n *NotePage) Validate() error {
	if blank(n.Title) {
		return &ValidationError{Field: "title", Reason: reasonRequired}
	}
	if !validID(n.ID) {
		return &ValidationError{Field: "id", Reason: reasonID}
	}
	if !validID(n.ObjectID) {
		return &ValidationError{Field: "oid", Reason: reasonID}
	}
	if !oneOf(n.ObjectType, NotePageObjectTypes) {
		return &ValidationError{Field: "otype", Reason: `should be one of "e", "hosts", "ports"`}
	}
	return nil
}

// ListNotePages returns the note pages under a parent object.
func (c *Client) ListNotePages(ctx context.Context, otype, oid string) ([]NotePage, error) {
	if !oneOf(otype, NotePageObjectTypes) || otype == "" {
		return nil, &ValidationError{Field: "otype", Reason: `should be one of "e", "hosts", "ports"`}
	}
	if !idPattern.MatchString(oid) {
		return nil, &ValidationError{Field: "oid", Reason: reasonID}
	}
	var out []NotePage
	path := "/" + otype + "/" + url.PathEscape(oid) + "/notepages"
	if err := c.do(ctx, http.MethodGet, path, "notepages.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NotePage fetches a single note page by ID.
func (c *Client) NotePage(ctx context.Context, nid string) (*NotePage, error) {
	if !idPattern.MatchString(nid) {
		return nil, &ValidationError{Field: "nid", Reason: reasonID}
	}
	var out NotePage
	if err := c.do(ctx, http.MethodGet, "/notepages/"+url.PathEscape(nid), "notepages.get", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateNotePage creates n under its parent object (oid/otype must be set)
// and stores the assigned ID back into it.
func (c *Client) CreateNotePage(ctx context.Context, n *NotePage) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.ObjectType == "" {
		return &ValidationError{Field: "otype", Reason: reasonRequired}
	}
	if n.ObjectID == "" {
		return &ValidationError{Field: "oid", Reason: reasonRequired}
	}

	payload := *n
	payload.ID = ""

	var created struct {
		ID string `json:"id"`
	}
	path := "/" + n.ObjectType + "/" + url.PathEscape(n.ObjectID) + "/notepages"
	if err := c.do(ctx, http.MethodPost, path, "notepages.create", &payload, &created); err != nil {
		return err
	}
	n.ID = created.ID
	return nil
}

// UpdateNotePage pushes local changes to an existing note page.
func (c *Client) UpdateNotePage(ctx context.Context, n *NotePage) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.ID == "" {
		return &ValidationError{Field: "id", Reason: reasonRequired}
	}

	payload := *n
	payload.ID = ""

	return c.do(ctx, http.MethodPut, "/notepages/"+url.PathEscape(n.ID), "notepages.update", &payload, nil)
}

// DeleteNotePage removes a note page.
func (c *Client) DeleteNotePage(ctx context.Context, nid string) error {
	if !idPattern.MatchString(nid) {
		return &ValidationError{Field: "nid", Reason: reasonID}
	}
	return c.do(ctx, http.MethodDelete, "/notepages/"+url.PathEscape(nid), "notepages.delete", nil, nil)
}
