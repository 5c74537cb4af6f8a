// Package cycles groups classified instructions by cycle cost and answers cost
// lookups for an interpreter.
package cycles

import (
	"errors"
	"fmt"
	"sort"

	"github.com/oisee/sm83-optable/pkg/inst"
)

// Signature is the bucket key of an instruction kind. HasOperands is carried
// for emission only; dispatch is keyed on Op alone.
type Signature struct {
	Op          inst.Op
	HasOperands bool
}

// Bucket is one cost value and the signatures sharing it, in discovery order.
type Bucket struct {
	Cycles     uint8
	Signatures []Signature
}

// Kind selects one of the three dispatch structures.
type Kind uint8

const (
	Base Kind = iota
	Taken
	NotTaken
)

func (k Kind) String() string {
	switch k {
	case Base:
		return "base"
	case Taken:
		return "taken"
	case NotTaken:
		return "not-taken"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

var (
	ErrConflictingCost  = errors.New("op registered with two costs")
	ErrMissingSignature = errors.New("signature missing from every bucket")
	ErrTakenBelowBase   = errors.New("taken cost does not exceed not-taken cost")
	ErrBranchClass      = errors.New("cost disagrees with the op's branch class")
	ErrUnknownOp        = errors.New("op has no registered cost")
)

// bucketSet accumulates signatures per cost, deduplicating on Op.
type bucketSet struct {
	byCost map[uint8][]Signature
	cost   [inst.OpCount]uint8 // 0 = unregistered
}

func newBucketSet() *bucketSet {
	return &bucketSet{byCost: make(map[uint8][]Signature)}
}

func (bs *bucketSet) add(sig Signature, cost uint8) error {
	if prev := bs.cost[sig.Op]; prev != 0 {
		if prev != cost {
			return fmt.Errorf("%s: %w (%d and %d)", sig.Op, ErrConflictingCost, prev, cost)
		}
		return nil
	}
	bs.cost[sig.Op] = cost
	bs.byCost[cost] = append(bs.byCost[cost], sig)
	return nil
}

// ordered returns the buckets by ascending cost.
func (bs *bucketSet) ordered() []Bucket {
	costs := make([]int, 0, len(bs.byCost))
	for c := range bs.byCost {
		costs = append(costs, int(c))
	}
	sort.Ints(costs)
	out := make([]Bucket, 0, len(costs))
	for _, c := range costs {
		sigs := make([]Signature, len(bs.byCost[uint8(c)]))
		copy(sigs, bs.byCost[uint8(c)])
		out = append(out, Bucket{Cycles: uint8(c), Signatures: sigs})
	}
	return out
}

// Table holds the three dispatch structures. It is immutable once built.
type Table struct {
	sets [3]*bucketSet
}

// Build groups entries by cost. Entries are visited in slice order, which fixes
// the order of signatures inside each bucket. Entries without a cost (the
// invalid sentinel and the CB prefix) are skipped. Build fails if an Op is seen
// with two different costs, if an entry's cost has a taken variant but its Op
// does not transfer control (or the reverse), if a conditional branch is not
// slower when taken, or if any costed entry is left out of the buckets.
func Build(entries []inst.Entry) (*Table, error) {
	t := &Table{sets: [3]*bucketSet{newBucketSet(), newBucketSet(), newBucketSet()}}

	for _, e := range entries {
		if e.Cost.Base == 0 {
			continue
		}
		sig := Signature{Op: e.Desc.Op, HasOperands: e.Desc.HasOperands()}
		class := sig.Op.Branch()
		if (class != inst.NoBranch) != e.Cost.Branch() {
			return nil, fmt.Errorf("%s at 0x%02X: %w (cost %d/%d)", sig.Op, e.Code, ErrBranchClass, e.Cost.Base, e.Cost.Taken)
		}
		if !e.Cost.Branch() {
			if err := t.sets[Base].add(sig, e.Cost.Base); err != nil {
				return nil, err
			}
			continue
		}
		if e.Cost.Taken < e.Cost.Base || class == inst.Conditional && e.Cost.Taken == e.Cost.Base {
			return nil, fmt.Errorf("%s at 0x%02X: %w (%d/%d)", sig.Op, e.Code, ErrTakenBelowBase, e.Cost.Base, e.Cost.Taken)
		}
		if err := t.sets[NotTaken].add(sig, e.Cost.Base); err != nil {
			return nil, err
		}
		if err := t.sets[Taken].add(sig, e.Cost.Taken); err != nil {
			return nil, err
		}
	}

	if err := t.checkExhaustive(entries); err != nil {
		return nil, err
	}
	return t, nil
}

// checkExhaustive verifies every costed entry resolves through the lookups of t
// to the cost its rule attached.
func (t *Table) checkExhaustive(entries []inst.Entry) error {
	for _, e := range entries {
		if e.Cost.Base == 0 {
			continue
		}
		var got uint8
		var err error
		if e.Cost.Branch() {
			got, err = t.CyclesJmp(e.Desc, true)
			if err == nil && got != e.Cost.Taken {
				err = fmt.Errorf("%w: taken %d, want %d", ErrConflictingCost, got, e.Cost.Taken)
			}
		}
		if err == nil {
			got, err = t.Cycles(e.Desc)
			if err == nil && got != e.Cost.Base {
				err = fmt.Errorf("%w: %d, want %d", ErrConflictingCost, got, e.Cost.Base)
			}
		}
		if errors.Is(err, ErrUnknownOp) {
			err = ErrMissingSignature
		}
		if err != nil {
			return fmt.Errorf("%s at 0x%02X (ext=%v): %w", e.Desc.Op, e.Code, e.Extended, err)
		}
	}
	return nil
}

// Buckets returns the buckets of one dispatch structure by ascending cost.
func (t *Table) Buckets(k Kind) []Bucket {
	return t.sets[k].ordered()
}

// Cycles returns the unconditional cost of d, or its not-taken cost when d is a
// control transfer.
func (t *Table) Cycles(d inst.Descriptor) (uint8, error) {
	if d.Op >= inst.OpCount {
		return 0, fmt.Errorf("%w: %d", ErrUnknownOp, d.Op)
	}
	if c := t.sets[Base].cost[d.Op]; c != 0 {
		return c, nil
	}
	return t.CyclesJmp(d, false)
}

// CyclesJmp returns the cost of control transfer d given the branch outcome.
func (t *Table) CyclesJmp(d inst.Descriptor, taken bool) (uint8, error) {
	if d.Op >= inst.OpCount {
		return 0, fmt.Errorf("%w: %d", ErrUnknownOp, d.Op)
	}
	k := NotTaken
	if taken {
		k = Taken
	}
	if c := t.sets[k].cost[d.Op]; c != 0 {
		return c, nil
	}
	return 0, fmt.Errorf("%s: %w (%s)", d.Op, ErrUnknownOp, k)
}

// Signatures reports every Op registered in any bucket.
func (t *Table) Signatures() map[inst.Op]bool {
	all := make(map[inst.Op]bool)
	for _, set := range t.sets {
		for op, c := range set.cost {
			if c != 0 {
				all[inst.Op(op)] = true
			}
		}
	}
	return all
}
