// SPDX-License-Identifier: MIT

// Package pentestws is a client for the Pentest.ws API v1.
//
// Pentest.ws tracks penetration-testing engagements: the hosts in scope,
// their open ports, findings for the report, free-form note pages and
// per-host scratchpads. The client covers all of those resources.
//
// All methods require an API key. See https://pentest.ws/settings/api-key
// for how to retrieve one; by default it is read from the PENTEST_WS_API_KEY
// environment variable.
//
//	client, err := pentestws.New()
//	if err != nil {
//		// likely a missing API key
//	}
//	engagements, err := client.ListEngagements(ctx)
package pentestws
