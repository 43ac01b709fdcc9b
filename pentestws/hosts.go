// SPDX-License-Identifier: MIT

package pentestws

import (
	"context"
	"net/http"
	"net/url"
)

// Host is a target system inside an engagement.
type Host struct {
	ID         string `json:"id,omitempty"`
	EID        string `json:"eid,omitempty"`
	BoardID    string `json:"board_id,omitempty"`
	Target     string `json:"target"`
	Hostnames  string `json:"hostnames,omitempty"`
	Label      string `json:"label,omitempty"`
	Notes      string `json:"notes,omitempty"`
	OS         string `json:"os,omitempty"`
	OSType     string `json:"os_type,omitempty"`
	Type       string `json:"type,omitempty"`
	// Booleans always serialize: the service treats an absent flag and an
	// explicit false differently on update.
	Flagged    bool `json:"flagged"`
	OutOfScope bool `json:"out_of_scope"`
	Owned      bool `json:"owned"`
	Reviewed   bool `json:"reviewed"`
	Shell      bool `json:"shell"`
	ThumbsUp   bool `json:"thumbs_up"`
	ThumbsDown bool `json:"thumbs_down"`
}

// Validate checks local invariants before any request is sent.
func (h *Host) Validate() error {
	if !validTarget(h.Target) {
		return &ValidationError{Field: "target", Reason: "should be a valid IP address"}
	}
	for field, value := range map[string]string{
		"id":       h.ID,
		"eid":      h.EID,
		"board_id": h.BoardID,
	} {
		if !validID(value) {
			return &ValidationError{Field: field, Reason: reasonID}
		}
	}
	return nil
}

// ListHosts returns the hosts in an engagement.
func (c *Client) ListHosts(ctx context.Context, eid string) ([]Host, error) {
	if !idPattern.MatchString(eid) {
		return nil, &ValidationError{Field: "eid", Reason: reasonID}
	}
	var out []Host
	if err := c.do(ctx, http.MethodGet, "/e/"+url.PathEscape(eid)+"/hosts", "hosts.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Host fetches a single host by ID.
func (c *Client) Host(ctx context.Context, hid string) (*Host, error) {
	if !idPattern.MatchString(hid) {
		return nil, &ValidationError{Field: "hid", Reason: reasonID}
	}
	var out Host
	if err := c.do(ctx, http.MethodGet, "/hosts/"+url.PathEscape(hid), "hosts.get", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateHost creates h inside the engagement and stores the assigned ID back
// into it. The id and eid fields are never serialized; the engagement is
// addressed by the URL.
func (c *Client) CreateHost(ctx context.Context, eid string, h *Host) error {
	if !idPattern.MatchString(eid) {
		return &ValidationError{Field: "eid", Reason: reasonID}
	}
	if err := h.Validate(); err != nil {
		return err
	}

	payload := *h
	payload.ID = ""
	payload.EID = ""

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/e/"+url.PathEscape(eid)+"/hosts", "hosts.create", &payload, &created); err != nil {
		return err
	}
	h.ID = created.ID
	h.EID = eid
	return nil
}

// UpdateHost pushes local changes to an existing host.
func (c *Client) UpdateHost(ctx context.Context, h *Host) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if h.ID == "" {
		return &ValidationError{Field: "id", Reason: reasonRequired}
	}

	payload := *h
	payload.ID = ""
	payload.EID = ""

	return c.do(ctx, http.MethodPut, "/hosts/"+url.PathEscape(h.ID), "hosts.update", &payload, nil)
}

// DeleteHost removes a host and its ports, notes and scratchpads.
func (c *Client) DeleteHost(ctx context.Context, hid string) error {
	if !idPattern.MatchString(hid) {
		return &ValidationError{Field: "hid", Reason: reasonID}
	}
	return c.do(ctx, http.MethodDelete, "/hosts/"+url.PathEscape(hid), "hosts.delete", nil, nil)
}
