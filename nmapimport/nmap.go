// SPDX-License-Identifier: MIT

// Package nmapimport parses nmap XML output and uploads the discovered
// hosts and ports into a Pentest.ws engagement.
package nmapimport

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bjb28/go-pws/pentestws"
)

// HostScan is one up host from an nmap run, mapped to API resources and
// ready to upload.
type HostScan struct {
	Host  pentestws.Host
	Ports []pentestws.Port
}

type nmapRun struct {
	XMLName xml.Name   `xml:"nmaprun"`
	Hosts   []nmapHost `xml:"host"`
}

type nmapHost struct {
	Status    nmapStatus     `xml:"status"`
	Addresses []nmapAddress  `xml:"address"`
	Hostnames []nmapHostname `xml:"hostnames>hostname"`
	Ports     []nmapPort     `xml:"ports>port"`
	OSMatches []nmapOSMatch  `xml:"os>osmatch"`
}

type nmapStatus struct {
	State string `xml:"state,attr"`
}

type nmapAddress struct {
	Addr     string `xml:"addr,attr"`
	AddrType string `xml:"addrtype,attr"`
}

type nmapHostname struct {
	Name string `xml:"name,attr"`
}

type nmapPort struct {
	Protocol string      `xml:"protocol,attr"`
	Number   int         `xml:"portid,attr"`
	State    nmapState   `xml:"state"`
	Service  nmapService `xml:"service"`
}

type nmapState struct {
	State string `xml:"state,attr"`
}

type nmapService struct {
	Name    string `xml:"name,attr"`
	Product string `xml:"product,attr"`
	Version string `xml:"version,attr"`
}

type nmapOSMatch struct {
	Name string `xml:"name,attr"`
}

// Parse reads nmap XML and returns one HostScan per host that is up and
// has a usable IP address. Down hosts are skipped; a run with none yields
// an empty slice.
func Parse(r io.Reader) ([]HostScan, error) {
	var run nmapRun
	if err := xml.NewDecoder(r).Decode(&run); err != nil {
		return nil, fmt.Errorf("nmapimport: decode: %w", err)
	}

	var scans []HostScan
	for _, h := range run.Hosts {
		if h.Status.State != "up" {
			continue
		}
		target := hostAddress(h.Addresses)
		if target == "" {
			continue
		}

		scan := HostScan{
			Host: pentestws.Host{
				Target:    target,
				Hostnames: hostnameList(h.Hostnames),
			},
		}
		if len(h.OSMatches) > 0 {
			scan.Host.OS = h.OSMatches[0].Name
		}

		for _, p := range h.Ports {
			if !knownPortState(p.State.State) {
				continue
			}
			scan.Ports = append(scan.Ports, pentestws.Port{
				Number:  p.Number,
				Proto:   p.Protocol,
				Service: p.Service.Name,
				Version: serviceVersion(p.Service),
				State:   p.State.State,
			})
		}
		scans = append(scans, scan)
	}
	return scans, nil
}

// ParseFile reads nmap XML from path.
func ParseFile(path string) ([]HostScan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nmapimport: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// hostAddress prefers the IPv4 address and falls back to IPv6. MAC
// addresses are never a valid target.
func hostAddress(addrs []nmapAddress) string {
	var v6 string
	for _, a := range addrs {
		switch a.AddrType {
		case "ipv4":
			return a.Addr
		case "ipv6":
			if v6 == "" {
				v6 = a.Addr
			}
		}
	}
	return v6
}

func hostnameList(names []nmapHostname) string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, n := range names {
		if n.Name == "" {
			continue
		}
		if _, ok := seen[n.Name]; ok {
			continue
		}
		seen[n.Name] = struct{}{}
		out = append(out, n.Name)
	}
	return strings.Join(out, ", ")
}

func knownPortState(state string) bool {
	for _, s := range pentestws.PortStates {
		if s == state {
			return true
		}
	}
	return false
}

func serviceVersion(s nmapService) string {
	switch {
	case s.Product == "":
		return s.Version
	case s.Version == "":
		return s.Product
	default:
		return s.Product + " " + s.Version
	}
}
