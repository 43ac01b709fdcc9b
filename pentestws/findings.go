// SPDX-License-Identifier: MIT

package pentestws

import (
	"context"
	"net/http"
	"net/url"
)

// Finding is a report finding attached to an engagement.
type Finding struct {
	ID              string    `json:"id,omitempty"`
	EID             string    `json:"eid,omitempty"`
	FindingID       string    `json:"finding_id,omitempty"`
	Title           string    `json:"title"`
	Environment     string    `json:"environment,omitempty"`
	Category        string    `json:"category,omitempty"`
	RiskLevel       string    `json:"risk_level,omitempty"`
	CVSS2Num        float64   `json:"cvss2_num,omitempty"`
	CVSS2Str        string    `json:"cvss2_str,omitempty"`
	CVSS3Num        float64   `json:"cvss3_num,omitempty"`
	CVSS3Str        string    `json:"cvss3_str,omitempty"`
	Dread           []string  `json:"dread,omitempty"`
	Background      string    `json:"background,omitempty"`
	DescBrief       string    `json:"desc_brief,omitempty"`
	DescFull        string    `json:"desc_full,omitempty"`
	ImpactBrief     string    `json:"impact_brief,omitempty"`
	ImpactFull      string    `json:"impact_full,omitempty"`
	RecoBrief       string    `json:"reco_brief,omitempty"`
	RecoFull        string    `json:"reco_full,omitempty"`
	RecoEffort      string    `json:"reco_effort,omitempty"`
	Targets         string    `json:"targets,omitempty"`
	References      string    `json:"references,omitempty"`
	Evidence        string    `json:"evidence,omitempty"`
	ValidationSteps string    `json:"validation_steps,omitempty"`
	RemediationLog  string    `json:"remediation_log,omitempty"`
	CreatedAt       Timestamp `json:"created_at,omitzero"`
}

// Validate checks local invariants before any request is sent.
func (f *Finding) Validate() error {
	if blank(f.Title) {
		return &ValidationError{Field: "title", Reason: reasonRequired}
	}
	if !validID(f.ID) {
		return &ValidationError{Field: "id", Reason: reasonID}
	}
	if !validID(f.EID) {
		return &ValidationError{Field: "eid", Reason: reasonID}
	}
	return nil
}

// ListFindings returns the findings recorded for an engagement.
func (c *Client) ListFindings(ctx context.Context, eid string) ([]Finding, error) {
	if !idPattern.MatchString(eid) {
		return nil, &ValidationError{Field: "eid", Reason: reasonID}
	}
	var out []Finding
	if err := c.do(ctx, http.MethodGet, "/e/"+url.PathEscape(eid)+"/findings", "findings.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Finding fetches a single finding by ID.
func (c *Client) Finding(ctx context.Context, fid string) (*Finding, error) {
	if !idPattern.MatchString(fid) {
		return nil, &ValidationError{Field: "fid", Reason: reasonID}
	}
	var out Finding
	if err := c.do(ctx, http.MethodGet, "/findings/"+url.PathEscape(fid), "findings.get", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFinding records f on the given engagement and stores the assigned ID
// back into it. The eid field is never serialized; the service does not
// accept it in the body.
func (c *Client) CreateFinding(ctx context.Context, eid string, f *Finding) error {
	if !idPattern.MatchString(eid) {
		return &ValidationError{Field: "eid", Reason: reasonID}
	}
	if err := f.Validate(); err != nil {
		return err
	}

	payload := *f
	payload.ID = ""
	payload.EID = ""
	payload.CreatedAt = Timestamp{}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/e/"+url.PathEscape(eid)+"/findings", "findings.create", &payload, &created); err != nil {
		return err
	}
	f.ID = created.ID
	f.EID = eid
	return nil
}

// UpdateFinding pushes local changes to an existing finding.
func (c *Client) UpdateFinding(ctx context.Context, f *Finding) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.ID == "" {
		return &ValidationError{Field: "id", Reason: reasonRequired}
	}

	payload := *f
	payload.ID = ""
	payload.EID = ""
	payload.CreatedAt = Timestamp{}

	return c.do(ctx, http.MethodPut, "/findings/"+url.PathEscape(f.ID), "findings.update", &payload, nil)
}

// DeleteFinding removes a finding.
func (c *Client) DeleteFinding(ctx context.Context, fid string) error {
	if !idPattern.MatchString(fid) {
		return &ValidationError{Field: "fid", Reason: reasonID}
	}
	return c.do(ctx, http.MethodDelete, "/findings/"+url.PathEscape(fid), "findings.delete", nil, nil)
}
