// SPDX-License-Identifier: MIT

package pentestws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPort() Port {
	return Port{
		ID:        "56VqkKba",
		HID:       "za4AlEP6",
		Number:    22,
		Proto:     "tcp",
		Service:   "SSH",
		Version:   "2.3",
		Status:    "Needs Review",
		State:     "open",
		Notes:     "Some Notes",
		Checklist: []map[string]string{{"0": "Log In?"}},
	}
}

func TestPortValidatePass(t *testing.T) {
	p := validPort()
	assert.NoError(t, p.Validate())
}

func TestPortValidateFail(t *testing.T) {
	tests := []struct {
		name  string
		field string
		mod   func(*Port)
	}{
		{"short id", "id", func(p *Port) { p.ID = "abc1234" }},
		{"symbol id", "id", func(p *Port) { p.ID = "abcd123$" }},
		{"short hid", "hid", func(p *Port) { p.HID = "abc1234" }},
		{"symbol hid", "hid", func(p *Port) { p.HID = "abcd123$" }},
		{"negative port", "port", func(p *Port) { p.Number = -1 }},
		{"port too large", "port", func(p *Port) { p.Number = 65536 }},
		{"bad proto", "proto", func(p *Port) { p.Proto = "work" }},
		{"bad status", "status", func(p *Port) { p.Status = "other" }},
		{"bad state", "state", func(p *Port) { p.State = "other" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validPort()
			tc.mod(&p)

			err := p.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestPortValidateAllStates(t *testing.T) {
	for _, state := range PortStates {
		p := validPort()
		p.State = state
		assert.NoError(t, p.Validate(), state)
	}
}

func TestPortBoundaryNumbers(t *testing.T) {
	for _, n := range []int{0, 65535} {
		p := validPort()
		p.Number = n
		assert.NoError(t, p.Validate(), n)
	}
}

func TestPortCreateStripsHID(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()
	eid := ms.SeedEngagement(Engagement{Name: "Engagement 1"})
	hid := ms.SeedHost(eid, Host{Target: "1.2.3.4"})

	c := newTestClient(t, ms)

	p := Port{Number: 22, Proto: "tcp", Service: "ssh", State: "open"}
	require.NoError(t, c.CreatePort(context.Background(), hid, &p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, hid, p.HID)
}

func TestPortCreateUnknownHost(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()

	c := newTestClient(t, ms)

	p := Port{Number: 22}
	err := c.CreatePort(context.Background(), "12345678", &p)
	assert.ErrorIs(t, err, ErrBadRequest)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid Host ID", apiErr.Msg)
}

func TestPortListAndGet(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()
	eid := ms.SeedEngagement(Engagement{Name: "Engagement 1"})
	hid := ms.SeedHost(eid, Host{Target: "1.2.3.4"})
	pid := ms.SeedPort(hid, Port{Number: 443, Proto: "tcp", Service: "https"})
	ms.SeedPort(hid, Port{Number: 80, Proto: "tcp", Service: "http"})

	c := newTestClient(t, ms)

	ports, err := c.ListPorts(context.Background(), hid)
	require.NoError(t, err)
	assert.Len(t, ports, 2)

	got, err := c.Port(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, 443, got.Number)
	assert.Equal(t, "https", got.Service)
}

func TestPortGetNotFound(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()

	c := newTestClient(t, ms)

	_, err := c.Port(context.Background(), "56VqkKba")
	assert.ErrorIs(t, err, ErrNotFound)
}
