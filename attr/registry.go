// Package attr maintains the bijection between human-readable attribute
// names and the integer slots the bounded scheme's algebra operates on, and
// normalizes attribute assignments crossing the service boundary.
package attr

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Registry is an append-only arena of attribute names. Slots start at 1 and
// grow in creation order; slot 0 is reserved for scheme-internal use and
// never assigned. Slots are never reused or renumbered, so an attribute
// record removed upstream leaves a still-valid, name-orphaned slot behind.
type Registry struct {
	mu    sync.Mutex
	ids   map[string]int
	names []string // names[0] unused, slot 0 reserved
}

func NewRegistry() *Registry {
	return &Registry{
		ids:   make(map[string]int),
		names: []string{""},
	}
}

// Encode resolves each name to its slot, allocating the next free slot for
// names not seen before. The get-or-allocate is applied atomically, so two
// concurrent callers encoding the same new name receive the same slot.
func (r *Registry) Encode(names []string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(names))
	for i, name := range names {
		id, ok := r.ids[name]
		if !ok {
			id = len(r.names)
			r.ids[name] = id
			r.names = append(r.names, name)
		}
		out[i] = id
	}
	return out
}

// Decode is the reverse lookup. A slot with no recorded name decodes to its
// own decimal representation, so raw scheme-internal identifiers never make
// the lookup fail.
func (r *Registry) Decode(ids []int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(ids))
	for i, id := range ids {
		if id > 0 && id < len(r.names) {
			out[i] = r.names[id]
		} else {
			out[i] = strconv.Itoa(id)
		}
	}
	return out
}

// Len returns the number of allocated slots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names) - 1
}

// RewritePolicy replaces every registered attribute name appearing in a
// rendered policy with its decimal slot, on word boundaries, producing the
// integer form the bounded scheme encrypts under. Longer names are rewritten
// first so that one name being a prefix of another cannot corrupt the
// policy.
func (r *Registry) RewritePolicy(policy string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.ids))
	for name := range r.ids {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		policy = re.ReplaceAllString(policy, strconv.Itoa(r.ids[name]))
	}
	return policy
}

// Normalize splits a comma-separated assignment list, trimming whitespace
// and upper-casing each entry. Upper-casing is the bounded scheme's
// convention; the boolean-policy scheme takes names as-is.
func Normalize(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EffectiveName returns the matching form of a possibly parametrized
// attribute: "base:instance" when an instance id is set, the bare base name
// otherwise.
func EffectiveName(base, instance string) string {
	if instance == "" {
		return base
	}
	return base + ":" + instance
}
