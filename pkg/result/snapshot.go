// Package result captures the classifier tables and cycle buckets as a
// serializable snapshot, so a build can be compared against a stored one.
package result

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/oisee/sm83-optable/pkg/cycles"
	"github.com/oisee/sm83-optable/pkg/inst"
)

// Entry is one opcode of a snapshot.
type Entry struct {
	Code      uint8  `json:"code"`
	Op        string `json:"op"`
	Text      string `json:"text"`
	Imm       string `json:"imm"`
	Cycles    uint8  `json:"cycles"`
	CyclesJmp uint8  `json:"cycles_jmp,omitempty"`
}

// Bucket is one cost value of a dispatch structure.
type Bucket struct {
	Cycles uint8    `json:"cycles"`
	Ops    []string `json:"ops"`
}

// Snapshot is the complete observable output of a build.
type Snapshot struct {
	Primary  []Entry  `json:"primary"`
	Extended []Entry  `json:"extended"`
	Base     []Bucket `json:"base"`
	Taken    []Bucket `json:"taken"`
	NotTaken []Bucket `json:"not_taken"`
}

// Take captures both opcode tables and the buckets of t.
func Take(t *cycles.Table) Snapshot {
	var s Snapshot
	for _, e := range inst.Entries() {
		r := Entry{
			Code:      e.Code,
			Op:        e.Desc.Op.String(),
			Text:      e.Desc.String(),
			Imm:       e.Desc.Imm.String(),
			Cycles:    e.Cost.Base,
			CyclesJmp: e.Cost.Taken,
		}
		if e.Extended {
			s.Extended = append(s.Extended, r)
		} else {
			s.Primary = append(s.Primary, r)
		}
	}
	s.Base = buckets(t.Buckets(cycles.Base))
	s.Taken = buckets(t.Buckets(cycles.Taken))
	s.NotTaken = buckets(t.Buckets(cycles.NotTaken))
	return s
}

func buckets(bs []cycles.Bucket) []Bucket {
	out := make([]Bucket, len(bs))
	for i, b := range bs {
		ops := make([]string, len(b.Signatures))
		for j, sig := range b.Signatures {
			ops[j] = sig.Op.String()
		}
		out[i] = Bucket{Cycles: b.Cycles, Ops: ops}
	}
	return out
}

// WriteJSON writes s as indented JSON.
func WriteJSON(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// ReadJSON reads a snapshot written by WriteJSON.
func ReadJSON(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Digest returns the hex SHA-256 of the compact JSON encoding of s.
func (s Snapshot) Digest() string {
	data, err := json.Marshal(s)
	if err != nil {
		// Snapshot holds only strings, integers and slices of them.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Diff lists the differences between two snapshots, one line each. It is empty
// when a and b are equal.
func Diff(a, b Snapshot) []string {
	var out []string
	out = diffEntries(out, "primary", a.Primary, b.Primary)
	out = diffEntries(out, "extended", a.Extended, b.Extended)
	out = diffBuckets(out, "base", a.Base, b.Base)
	out = diffBuckets(out, "taken", a.Taken, b.Taken)
	out = diffBuckets(out, "not-taken", a.NotTaken, b.NotTaken)
	return out
}

func diffEntries(out []string, table string, a, b []Entry) []string {
	if len(a) != len(b) {
		out = append(out, fmt.Sprintf("%s: %d entries vs %d", table, len(a), len(b)))
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			out = append(out, fmt.Sprintf("%s 0x%02X: %s (%s) vs %s (%s)",
				table, a[i].Code, a[i].Text, cost(a[i]), b[i].Text, cost(b[i])))
		}
	}
	return out
}

func cost(e Entry) string {
	if e.CyclesJmp != 0 {
		return fmt.Sprintf("%d/%d", e.Cycles, e.CyclesJmp)
	}
	return fmt.Sprintf("%d", e.Cycles)
}

func diffBuckets(out []string, kind string, a, b []Bucket) []string {
	ma, mb := bucketMap(a), bucketMap(b)
	for _, bk := range a {
		if other, ok := mb[bk.Cycles]; !ok {
			out = append(out, fmt.Sprintf("%s %d: only in first %v", kind, bk.Cycles, bk.Ops))
		} else if !equalOps(bk.Ops, other) {
			out = append(out, fmt.Sprintf("%s %d: %v vs %v", kind, bk.Cycles, bk.Ops, other))
		}
	}
	for _, bk := range b {
		if _, ok := ma[bk.Cycles]; !ok {
			out = append(out, fmt.Sprintf("%s %d: only in second %v", kind, bk.Cycles, bk.Ops))
		}
	}
	return out
}

func bucketMap(bs []Bucket) map[uint8][]string {
	m := make(map[uint8][]string, len(bs))
	for _, b := range bs {
		m[b.Cycles] = b.Ops
	}
	return m
}

func equalOps(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
