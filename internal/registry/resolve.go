package registry

import "strings"

// Normalize converts a path-safe identifier into a lookup query: underscores
// become spaces and runs of whitespace collapse to single spaces. Callers
// arriving over HTTP substitute spaces with underscores, so "office_light"
// and "Office Light" normalise to the same query.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(query, "_", " ")), " ")
}

// ResolveDevice maps a user-supplied identifier to a device. Match stages are
// tried in order, each traversing the snapshot in registry sort order:
//
//  1. Exact match on id.
//  2. Exact case-insensitive match on name.
//  3. Case-insensitive substring match (name contains query).
//  4. Token-fuzzy match: every query token is a substring of at least one
//     name token ("liv lamp" and "lamp liv" both find "Living Room Lamp").
//
// Returns ErrDeviceNotFound if no stage matches.
func (r *Registry) ResolveDevice(query string) (*Device, error) {
	q := Normalize(query)
	if q == "" {
		return nil, ErrDeviceNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.devices {
		if r.devices[i].ID == q {
			return r.devices[i].Clone(), nil
		}
	}

	lq := strings.ToLower(q)
	for i := range r.devices {
		if strings.ToLower(r.devices[i].Name) == lq {
			return r.devices[i].Clone(), nil
		}
	}

	for i := range r.devices {
		if strings.Contains(strings.ToLower(r.devices[i].Name), lq) {
			return r.devices[i].Clone(), nil
		}
	}

	queryTokens := strings.Fields(lq)
	for i := range r.devices {
		if tokensMatch(queryTokens, strings.Fields(strings.ToLower(r.devices[i].Name))) {
			return r.devices[i].Clone(), nil
		}
	}

	return nil, ErrDeviceNotFound
}

// tokensMatch reports whether every query token is a substring of at least
// one name token. Order-independent.
func tokensMatch(queryTokens, nameTokens []string) bool {
	if len(queryTokens) == 0 {
		return false
	}
	for _, qt := range queryTokens {
		found := false
		for _, nt := range nameTokens {
			if strings.Contains(nt, qt) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// maxSuggestions caps the device-name suggestions returned for failed lookups.
const maxSuggestions = 3

// Suggestions returns up to three device names whose name contains the first
// three characters of the lowercased query, for "did you mean" error detail.
// Queries shorter than three characters yield nothing.
func (r *Registry) Suggestions(query string) []string {
	runes := []rune(strings.ToLower(Normalize(query)))
	if len(runes) < 3 {
		return nil
	}
	prefix := string(runes[:3])

	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for i := range r.devices {
		if strings.Contains(strings.ToLower(r.devices[i].Name), prefix) {
			names = append(names, r.devices[i].Name)
			if len(names) == maxSuggestions {
				break
			}
		}
	}
	return names
}

// ResolveScene maps a user-supplied identifier to a scene: exact id lookup
// first, then exact lowercase-name lookup, then a substring scan across the
// name index. The substring scan breaks ties deterministically: shortest
// matching name wins, then lexicographic.
func (r *Registry) ResolveScene(query string) (*Scene, error) {
	q := Normalize(query)
	if q == "" {
		return nil, ErrSceneNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.sceneByID[q]; ok {
		cpy := s
		return &cpy, nil
	}

	lq := strings.ToLower(q)
	if id, ok := r.sceneByName[lq]; ok {
		s := r.sceneByID[id]
		return &s, nil
	}

	best := ""
	for key := range r.sceneByName {
		if !strings.Contains(key, lq) {
			continue
		}
		if best == "" || len(key) < len(best) || (len(key) == len(best) && key < best) {
			best = key
		}
	}
	if best != "" {
		s := r.sceneByID[r.sceneByName[best]]
		return &s, nil
	}

	return nil, ErrSceneNotFound
}
