// Package discovery implements the neighbor registry populated by hello
// packet receipt: for each neighbor that has announced itself, the set of
// neighbors that neighbor itself reported.
package discovery

import (
	"encoding/json"
	"sync"

	"github.com/cristiantrapero/ctp-node"
)

const noneLiteral = "None"

// Registry records, for each neighbor address (as hex text) that has sent
// a hello packet, the neighbor list that hello packet carried. The zero
// value is ready for use and is safe for concurrent use by multiple
// goroutines, since registration happens on the receive path while reads
// may come from the facade's own goroutine.
type Registry struct {
	mu    sync.Mutex
	nodes map[string][]string
}

// Register decodes payload as either the literal "None" (no neighbors) or
// a JSON object whose keys are neighbor addresses, and replaces any prior
// entry for node with the decoded neighbor list. It is called exclusively
// as a side effect of receiving a hello packet.
//
// A payload that is neither "None" nor valid JSON is treated as "no
// neighbors" for this registration rather than rejected outright: node
// is still registered (with a cleared, empty neighbor list), and
// [ctp.ErrDiscoveryParse] is returned so the caller can log or count the
// malformed hello without losing the fact that node is a live neighbor.
func (r *Registry) Register(node string, payload []byte) error {
	var keys []string
	var parseErr error
	text := string(payload)
	if text != noneLiteral {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(payload, &obj); err != nil {
			parseErr = ctp.ErrDiscoveryParse
		} else {
			keys = make([]string, 0, len(obj))
			for k := range obj {
				keys = append(keys, k)
			}
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nodes == nil {
		r.nodes = make(map[string][]string)
	}
	r.nodes[node] = keys
	return parseErr
}

// List returns the set of known neighbor addresses, as hex text.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.nodes))
	for k := range r.nodes {
		out = append(out, k)
	}
	return out
}

// EncodePayload renders neighbors as the wire payload of an outgoing hello
// packet: the literal "None" if there are no neighbors, else a JSON object
// whose keys are the neighbor addresses (values are always true and carry
// no meaning, matching the registry's own disregard for values on decode).
func EncodePayload(neighbors []string) []byte {
	if len(neighbors) == 0 {
		return []byte(noneLiteral)
	}
	obj := make(map[string]bool, len(neighbors))
	for _, n := range neighbors {
		obj[n] = true
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return []byte(noneLiteral)
	}
	return b
}

// Snapshot returns a copy of the full neighbor → neighbor-list mapping.
func (r *Registry) Snapshot() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]string, len(r.nodes))
	for k, v := range r.nodes {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
