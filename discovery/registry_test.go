package discovery_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/cristiantrapero/ctp-node"
	"github.com/cristiantrapero/ctp-node/discovery"
)

func TestRegisterNoneLiteralYieldsNoNeighbors(t *testing.T) {
	var r discovery.Registry
	if err := r.Register("A1", []byte("None")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := r.Snapshot()["A1"]; len(got) != 0 {
		t.Fatalf("got %v, want no neighbors", got)
	}
}

func TestRegisterJSONObjectYieldsItsKeys(t *testing.T) {
	var r discovery.Registry
	if err := r.Register("A1", []byte(`{"02AB":""}`)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got := r.Snapshot()["A1"]
	if len(got) != 1 || got[0] != "02AB" {
		t.Fatalf("got %v, want [02AB]", got)
	}
}

// TestRegisterMalformedJSONStillRegistersWithEmptyNeighbors covers a
// hello payload that is neither "None" nor valid JSON: the sender must
// still end up a known node (with an empty neighbor list) rather than
// vanish from the registry, and Register reports ctp.ErrDiscoveryParse
// so the caller can log the malformed payload.
func TestRegisterMalformedJSONStillRegistersWithEmptyNeighbors(t *testing.T) {
	var r discovery.Registry
	err := r.Register("A1", []byte("not json and not None"))
	if !errors.Is(err, ctp.ErrDiscoveryParse) {
		t.Fatalf("Register err = %v, want ctp.ErrDiscoveryParse", err)
	}
	nodes := r.List()
	if len(nodes) != 1 || nodes[0] != "A1" {
		t.Fatalf("List() = %v, want [A1]: malformed hello must still register the sender", nodes)
	}
	if got := r.Snapshot()["A1"]; len(got) != 0 {
		t.Fatalf("got %v, want no neighbors for a malformed payload", got)
	}
}

// TestRegisterMalformedJSONClearsStalePriorNeighbors covers the same
// failure for an already-known neighbor: a malformed hello must clear
// its previously reported neighbor list to empty, not leave the stale
// list in place.
func TestRegisterMalformedJSONClearsStalePriorNeighbors(t *testing.T) {
	var r discovery.Registry
	if err := r.Register("A1", []byte(`{"02AB":""}`)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.Register("A1", []byte("garbage"))
	if !errors.Is(err, ctp.ErrDiscoveryParse) {
		t.Fatalf("Register err = %v, want ctp.ErrDiscoveryParse", err)
	}
	if got := r.Snapshot()["A1"]; len(got) != 0 {
		t.Fatalf("got %v, want stale neighbor list cleared to empty", got)
	}
}

func TestEncodePayloadRoundTrip(t *testing.T) {
	empty := discovery.EncodePayload(nil)
	if string(empty) != "None" {
		t.Fatalf("got %q, want \"None\"", empty)
	}

	encoded := discovery.EncodePayload([]string{"02AB", "02CD"})
	var r discovery.Registry
	if err := r.Register("B1", encoded); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got := r.Snapshot()["B1"]
	sort.Strings(got)
	if len(got) != 2 || got[0] != "02AB" || got[1] != "02CD" {
		t.Fatalf("got %v, want [02AB 02CD]", got)
	}
}

func TestListReturnsAllKnownNodes(t *testing.T) {
	var r discovery.Registry
	r.Register("A1", []byte("None"))
	r.Register("B1", []byte("None"))
	got := r.List()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "A1" || got[1] != "B1" {
		t.Fatalf("got %v, want [A1 B1]", got)
	}
}
