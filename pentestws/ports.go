// SPDX-License-Identifier: MIT

package pentestws

import (
	"context"
	"net/http"
	"net/url"
)

// Port is a service endpoint on a host, in the nmap sense.
type Port struct {
	ID        string              `json:"id,omitempty"`
	HID       string              `json:"hid,omitempty"`
	Number    int                 `json:"port"`
	Proto     string              `json:"proto,omitempty"`
	Service   string              `json:"service,omitempty"`
	Version   string              `json:"version,omitempty"`
	Status    string              `json:"status,omitempty"`
	State     string              `json:"state,omitempty"`
	Notes     string              `json:"notes,omitempty"`
	Checklist []map[string]string `json:"checklist,omitempty"`
}

// Validate checks local invariants before any request is sent.
func (p *Port) Validate() error {
	if p.Number < 0 || p.Number > 65535 {
		return &ValidationError{Field: "port", Reason: "should be an integer between 0 and 65535"}
	}
	if !validID(p.ID) {
		return &ValidationError{Field: "id", Reason: reasonID}
	}
	if !validID(p.HID) {
		return &ValidationError{Field: "hid", Reason: reasonID}
	}
	if !oneOf(p.Proto, Protocols) {
		return &ValidationError{Field: "proto", Reason: `should be "tcp" or "udp"`}
	}
	if !oneOf(p.Status, PortStatuses) {
		return &ValidationError{Field: "status", Reason: "is not a valid status"}
	}
	if !oneOf(p.State, PortStates) {
		return &ValidationError{Field: "state", Reason: "is not a valid state"}
	}
	return nil
}

// ListPorts returns the ports recorded for a host.
func (c *Client) ListPorts(ctx context.Context, hid string) ([]Port, error) {
	if !idPattern.MatchString(hid) {
		return nil, &ValidationError{Field: "hid", Reason: reasonID}
	}
	var out []Port
	if err := c.do(ctx, http.MethodGet, "/hosts/"+url.PathEscape(hid)+"/ports", "ports.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Port fetches a single port by ID.
func (c *Client) Port(ctx context.Context, pid string) (*Port, error) {
	if !idPattern.MatchString(pid) {
		return nil, &ValidationError{Field: "pid", Reason: reasonID}
	}
	var out Port
	if err := c.do(ctx, http.MethodGet, "/ports/"+url.PathEscape(pid), "ports.get", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePort records p on the given host and stores the assigned ID back
// into it. The hid field is never serialized; the host is addressed by the
// URL.
func (c *Client) CreatePort(ctx context.Context, hid string, p *Port) error {
	if !idPattern.MatchString(hid) {
		return &ValidationError{Field: "hid", Reason: reasonID}
	}
	if err := p.Validate(); err != nil {
		return err
	}

	payload := *p
	payload.ID = ""
	payload.HID = ""

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/hosts/"+url.PathEscape(hid)+"/ports", "ports.create", &payload, &created); err != nil {
		return err
	}
	p.ID = created.ID
	p.HID = hid
	return nil
}

// UpdatePort pushes local changes to an existing port.
func (c *Client) UpdatePort(ctx context.Context, p *Port) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		return &ValidationError{Field: "id", Reason: reasonRequired}
	}

	payload := *p
	payload.ID = ""
	payload.HID = ""

	return c.do(ctx, http.MethodPut, "/ports/"+url.PathEscape(p.ID), "ports.update", &payload, nil)
}

// DeletePort removes a port.
func (c *Client) DeletePort(ctx context.Context, pid string) error {
	if !idPattern.MatchString(pid) {
		return &ValidationError{Field: "pid", Reason: reasonID}
	}
	return c.do(ctx, http.MethodDelete, "/ports/"+url.PathEscape(pid), "ports.delete", nil, nil)
}
