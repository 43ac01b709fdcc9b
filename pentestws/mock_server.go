// SPDX-License-Identifier: MIT

package pentestws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockServer provides a configurable Pentest.ws mock for testing. It keeps
// all resources in memory and mimics the service's auth and error bodies.
type MockServer struct {
	*httptest.Server

	mu          sync.RWMutex
	apiKey      string
	nextID      int
	engagements map[string]*Engagement
	hosts       map[string]*Host
	ports       map[string]*Port
	findings    map[string]*Finding
	notePages   map[string]*NotePage
	scratchpads map[string]*Scratchpad
	failures    map[string]int // per-path count of 500s to serve first
}

// NewMockServer starts a mock that accepts the given API key.
func NewMockServer(apiKey string) *MockServer {
	m := &MockServer{
		apiKey:      apiKey,
		engagements: make(map[string]*Engagement),
		hosts:       make(map[string]*Host),
		ports:       make(map[string]*Port),
		findings:    make(map[string]*Finding),
		notePages:   make(map[string]*NotePage),
		scratchpads: make(map[string]*Scratchpad),
		failures:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /e", m.listEngagements)
	mux.HandleFunc("POST /e", m.createEngagement)
	mux.HandleFunc("GET /e/{eid}", m.getEngagement)
	mux.HandleFunc("PUT /e/{eid}", m.updateEngagement)
	mux.HandleFunc("DELETE /e/{eid}", m.deleteEngagement)

	mux.HandleFunc("GET /e/{eid}/hosts", m.listHosts)
	mux.HandleFunc("POST /e/{eid}/hosts", m.createHost)
	mux.HandleFunc("GET /hosts/{hid}", m.getHost)
	mux.HandleFunc("PUT /hosts/{hid}", m.updateHost)
	mux.HandleFunc("DELETE /hosts/{hid}", m.deleteHost)

	mux.HandleFunc("GET /hosts/{hid}/ports", m.listPorts)
	mux.HandleFunc("POST /hosts/{hid}/ports", m.createPort)
	mux.HandleFunc("GET /ports/{pid}", m.getPort)
	mux.HandleFunc("PUT /ports/{pid}", m.updatePort)
	mux.HandleFunc("DELETE /ports/{pid}", m.deletePort)

	mux.HandleFunc("GET /e/{eid}/findings", m.listFindings)
	mux.HandleFunc("POST /e/{eid}/findings", m.createFinding)
	mux.HandleFunc("GET /findings/{fid}", m.getFinding)
	mux.HandleFunc("PUT /findings/{fid}", m.updateFinding)
	mux.HandleFunc("DELETE /findings/{fid}", m.deleteFinding)

	mux.HandleFunc("GET /hosts/{hid}/scratchpads", m.listScratchpads)
	mux.HandleFunc("POST /hosts/{hid}/scratchpads", m.createScratchpad)
	mux.HandleFunc("GET /scratchpads/{sid}", m.getScratchpad)
	mux.HandleFunc("PUT /scratchpads/{sid}", m.updateScratchpad)
	mux.HandleFunc("DELETE /scratchpads/{sid}", m.deleteScratchpad)

	mux.HandleFunc("GET /{otype}/{oid}/notepages", m.listNotePages)
	mux.HandleFunc("POST /{otype}/{oid}/notepages", m.createNotePage)
	mux.HandleFunc("GET /notepages/{nid}", m.getNotePage)
	mux.HandleFunc("PUT /notepages/{nid}", m.updateNotePage)
	mux.HandleFunc("DELETE /notepages/{nid}", m.deleteNotePage)

	m.Server = httptest.NewServer(m.withAuth(mux))
	return m
}

// FailNext makes the next n requests to path fail with a 500 before the mock
// behaves normally again.
func (m *MockServer) FailNext(path string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = n
}

func (m *MockServer) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		if n := m.failures[r.URL.Path]; n > 0 {
			m.failures[r.URL.Path] = n - 1
			m.mu.Unlock()
			writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "Internal Server Error"})
			return
		}
		m.mu.Unlock()

		if r.Header.Get("X-API-KEY") != m.apiKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Invalid API Key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockServer) newID() string {
	m.nextID++
	return fmt.Sprintf("mock%04d", m.nextID)
}

// SeedEngagement stores e and returns its (possibly generated) ID.
func (m *MockServer) SeedEngagement(e Engagement) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = m.newID()
	}
	m.engagements[e.ID] = &e
	return e.ID
}

// SeedHost stores h under the engagement eid and returns its ID.
func (m *MockServer) SeedHost(eid string, h Host) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.ID == "" {
		h.ID = m.newID()
	}
	h.EID = eid
	m.hosts[h.ID] = &h
	return h.ID
}

// SeedPort stores p under the host hid and returns its ID.
func (m *MockServer) SeedPort(hid string, p Port) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = m.newID()
	}
	p.HID = hid
	m.ports[p.ID] = &p
	return p.ID
}

// SeedScratchpad stores s under the host hid and returns its ID.
func (m *MockServer) SeedScratchpad(hid string, s Scratchpad) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = m.newID()
	}
	s.HID = hid
	m.scratchpads[s.ID] = &s
	return s.ID
}

// HostCount reports how many hosts the mock is holding.
func (m *MockServer) HostCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hosts)
}

// PortCount reports how many ports the mock is holding.
func (m *MockServer) PortCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ports)
}

func (m *MockServer) listEngagements(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Engagement, 0, len(m.engagements))
	for _, e := range m.engagements {
		out = append(out, *e)
	}
	writeJSON(w, http.StatusOK, out)
}

func (m *MockServer) createEngagement(w http.ResponseWriter, r *http.Request) {
	var e Engagement
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	if e.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Missing name"})
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.newID()
	m.engagements[e.ID] = &e
	writeJSON(w, http.StatusOK, map[string]string{"id": e.ID})
}

func (m *MockServer) getEngagement(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.engagements[r.PathValue("eid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (m *MockServer) updateEngagement(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.engagements[r.PathValue("eid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	var in Engagement
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	if in.ID != "" || !in.CreatedAt.IsZero() || !in.Archived.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Unexpected server-owned field"})
		return
	}
	in.ID = e.ID
	in.CreatedAt = e.CreatedAt
	m.engagements[e.ID] = &in
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) deleteEngagement(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eid := r.PathValue("eid")
	if _, ok := m.engagements[eid]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	delete(m.engagements, eid)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) listHosts(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eid := r.PathValue("eid")
	out := make([]Host, 0)
	for _, h := range m.hosts {
		if h.EID == eid {
			out = append(out, *h)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (m *MockServer) createHost(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eid := r.PathValue("eid")
	if _, ok := m.engagements[eid]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid engagements ID"})
		return
	}
	var h Host
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	if h.Target == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Missing target"})
		return
	}
	h.ID = m.newID()
	h.EID = eid
	m.hosts[h.ID] = &h
	writeJSON(w, http.StatusOK, map[string]string{"id": h.ID})
}

func (m *MockServer) getHost(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hosts[r.PathValue("hid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (m *MockServer) updateHost(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hosts[r.PathValue("hid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	var in Host
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	if in.ID != "" || in.EID != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Unexpected server-owned field"})
		return
	}
	in.ID = h.ID
	in.EID = h.EID
	m.hosts[h.ID] = &in
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) deleteHost(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hid := r.PathValue("hid")
	if _, ok := m.hosts[hid]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	delete(m.hosts, hid)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) listPorts(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hid := r.PathValue("hid")
	out := make([]Port, 0)
	for _, p := range m.ports {
		if p.HID == hid {
			out = append(out, *p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (m *MockServer) createPort(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hid := r.PathValue("hid")
	if _, ok := m.hosts[hid]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid Host ID"})
		return
	}
	var p Port
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	p.ID = m.newID()
	p.HID = hid
	m.ports[p.ID] = &p
	writeJSON(w, http.StatusOK, map[string]string{"id": p.ID})
}

func (m *MockServer) getPort(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.ports[r.PathValue("pid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (m *MockServer) updatePort(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.ports[r.PathValue("pid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	var in Port
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	if in.ID != "" || in.HID != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Unexpected server-owned field"})
		return
	}
	in.ID = p.ID
	in.HID = p.HID
	m.ports[p.ID] = &in
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) deletePort(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pid := r.PathValue("pid")
	if _, ok := m.ports[pid]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	delete(m.ports, pid)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) listFindings(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eid := r.PathValue("eid")
	out := make([]Finding, 0)
	for _, f := range m.findings {
		if f.EID == eid {
			out = append(out, *f)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (m *MockServer) createFinding(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eid := r.PathValue("eid")
	if _, ok := m.engagements[eid]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid engagements ID"})
		return
	}
	var f Finding
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	if f.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Missing title"})
		return
	}
	f.ID = m.newID()
	f.EID = eid
	m.findings[f.ID] = &f
	writeJSON(w, http.StatusOK, map[string]string{"id": f.ID})
}

func (m *MockServer) getFinding(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.findings[r.PathValue("fid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (m *MockServer) updateFinding(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.findings[r.PathValue("fid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	var in Finding
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	if in.ID != "" || in.EID != "" || !in.CreatedAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Unexpected server-owned field"})
		return
	}
	in.ID = f.ID
	in.EID = f.EID
	in.CreatedAt = f.CreatedAt
	m.findings[f.ID] = &in
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) deleteFinding(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fid := r.PathValue("fid")
	if _, ok := m.findings[fid]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	delete(m.findings, fid)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) listScratchpads(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hid := r.PathValue("hid")
	out := make([]Scratchpad, 0)
	for _, s := range m.scratchpads {
		if s.HID == hid {
			out = append(out, *s)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (m *MockServer) createScratchpad(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hid := r.PathValue("hid")
	if _, ok := m.hosts[hid]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid Host ID"})
		return
	}
	var s Scratchpad
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	s.ID = m.newID()
	s.HID = hid
	m.scratchpads[s.ID] = &s
	writeJSON(w, http.StatusOK, map[string]string{"id": s.ID})
}

func (m *MockServer) getScratchpad(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scratchpads[r.PathValue("sid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (m *MockServer) updateScratchpad(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scratchpads[r.PathValue("sid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	var in Scratchpad
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	if in.ID != "" || in.HID != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Unexpected server-owned field"})
		return
	}
	in.ID = s.ID
	in.HID = s.HID
	m.scratchpads[s.ID] = &in
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) deleteScratchpad(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sid := r.PathValue("sid")
	if _, ok := m.scratchpads[sid]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	delete(m.scratchpads, sid)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) listNotePages(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	otype, oid := r.PathValue("otype"), r.PathValue("oid")
	out := make([]NotePage, 0)
	for _, n := range m.notePages {
		if n.ObjectType == otype && n.ObjectID == oid {
			out = append(out, *n)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (m *MockServer) createNotePage(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	otype, oid := r.PathValue("otype"), r.PathValue("oid")

	parentKnown := false
	switch otype {
	case "e":
		_, parentKnown = m.engagements[oid]
	case "hosts":
		_, parentKnown = m.hosts[oid]
	case "ports":
		_, parentKnown = m.ports[oid]
	}
	if !parentKnown {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid engagements ID"})
		return
	}

	var n NotePage
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	if n.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Missing title"})
		return
	}
	n.ID = m.newID()
	n.ObjectType = otype
	n.ObjectID = oid
	m.notePages[n.ID] = &n
	writeJSON(w, http.StatusOK, map[string]string{"id": n.ID})
}

func (m *MockServer) getNotePage(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notePages[r.PathValue("nid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (m *MockServer) updateNotePage(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notePages[r.PathValue("nid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	var in NotePage
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid JSON"})
		return
	}
	if in.ID != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Unexpected server-owned field"})
		return
	}
	in.ID = n.ID
	if in.ObjectType == "" {
		in.ObjectType = n.ObjectType
	}
	if in.ObjectID == "" {
		in.ObjectID = n.ObjectID
	}
	m.notePages[n.ID] = &in
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockServer) deleteNotePage(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nid := r.PathValue("nid")
	if _, ok := m.notePages[nid]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not Found"})
		return
	}
	delete(m.notePages, nid)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
