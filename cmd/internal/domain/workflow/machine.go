// Package workflow holds the case status transition rules.
//
// The rules are read from the catalog's AllowedNext column: each active status
// lists the codes that may follow it. A case without a status may enter any
// active status, so imported processes can start mid-sequence.
package workflow

import (
	"slices"
	"sort"
	"sync"

	"casetrack/cmd/internal/domain/entity"
)

// Machine is an immutable transition table keyed by status code.
type Machine struct {
	edges  map[string]map[string]struct{}
	active map[string]struct{}
}

// NewMachine builds a machine from an adjacency list. Every code appearing as a
// key is considered an active status; targets that are not keys are dropped.
func NewMachine(edges map[string][]string) *Machine {
	m := &Machine{
		edges:  make(map[string]map[string]struct{}, len(edges)),
		active: make(map[string]struct{}, len(edges)),
	}

	for code := range edges {
		m.active[code] = struct{}{}
	}

	for from, targets := range edges {
		next := make(map[string]struct{}, len(targets))
		for _, to := range targets {
			if _, ok := m.active[to]; !ok || to == from {
				continue
			}
			next[to] = struct{}{}
		}
		m.edges[from] = next
	}
	return m
}

// FromCatalog builds the machine out of the active catalog entries.
func FromCatalog(statuses []*entity.CaseStatus) *Machine {
	edges := make(map[string][]string, len(statuses))
	for _, s := range statuses {
		if !s.IsActive {
			continue
		}
		edges[s.Code] = s.AllowedNextCodes()
	}
	return NewMachine(edges)
}

// CanTransition reports whether a case currently in 'from' may move to 'to'.
// An empty 'from' means the case has no status yet.
func (m *Machine) CanTransition(from, to string) bool {
	if _, ok := m.active[to]; !ok {
		return false
	}

	if from == "" {
		return true
	}

	next, ok := m.edges[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// Next returns the codes reachable from 'from', sorted.
func (m *Machine) Next(from string) []string {
	if from == "" {
		return m.Codes()
	}

	next := make([]string, 0, len(m.edges[from]))
	for code := range m.edges[from] {
		next = append(next, code)
	}
	sort.Strings(next)
	return next
}

// IsTerminal returns true for active statuses with no outgoing transitions.
func (m *Machine) IsTerminal(code string) bool {
	if _, ok := m.active[code]; !ok {
		return false
	}
	return len(m.edges[code]) == 0
}

// Codes returns every active code known to the machine, sorted.
func (m *Machine) Codes() []string {
	codes := make([]string, 0, len(m.active))
	for code := range m.active {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Edges dumps the table, mostly for the API and tests.
func (m *Machine) Edges() map[string][]string {
	out := make(map[string][]string, len(m.edges))
	for from := range m.edges {
		out[from] = m.Next(from)
	}
	return out
}

// Holder shares the current machine between services. Catalog mutations swap
// in a freshly built machine, readers never see a partially built table.
type Holder struct {
	mu      sync.RWMutex
	machine *Machine
}

func NewHolder(m *Machine) *Holder {
	if m == nil {
		m = NewMachine(nil)
	}
	return &Holder{machine: m}
}

func (h *Holder) Current() *Machine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.machine
}

func (h *Holder) Swap(m *Machine) {
	h.mu.Lock()
	h.machine = m
	h.mu.Unlock()
}

// Reload rebuilds the machine from the given catalog snapshot.
func (h *Holder) Reload(statuses []*entity.CaseStatus) {
	h.Swap(FromCatalog(statuses))
}

// UnknownTargets returns the codes in 'next' that are missing from 'known'.
func UnknownTargets(next []string, known []string) []string {
	var missing []string
	for _, code := range next {
		if !slices.Contains(known, code) {
			missing = append(missing, code)
		}
	}
	return missing
}
