// Package formindex maps change-form references to their position in a
// decoded save using a minimal perfect hash.
package formindex

import (
	"fmt"

	"github.com/relab/bbhash"

	"github.com/eunmann/tesv-save/pkg/changeform"
	"github.com/eunmann/tesv-save/pkg/wire"
)

// Index answers "which change form describes this reference".
type Index struct {
	mph *bbhash.BBHash2
	// refs[pos] is the key stored at MPHF position pos, checked on lookup
	// so absent references are rejected.
	refs []wire.Ref
	// forms[pos] is the position of the change form in the input slice.
	forms      []int
	duplicates int
}

func key(r wire.Ref) uint64 {
	return uint64(r.Kind)<<32 | uint64(r.Value)
}

// Build indexes forms by Ref. When several forms share a reference the
// first one wins and the rest are counted as duplicates.
func Build(forms []changeform.ChangeForm) (*Index, error) {
	idx := &Index{}
	seen := make(map[uint64]int, len(forms))
	keys := make([]uint64, 0, len(forms))
	first := make([]int, 0, len(forms))
	for i := range forms {
		k := key(forms[i].Ref)
		if _, ok := seen[k]; ok {
			idx.duplicates++
			continue
		}
		seen[k] = i
		keys = append(keys, k)
		first = append(first, i)
	}
	if len(keys) == 0 {
		return idx, nil
	}

	// gamma=2.0 trades a little space for faster construction
	mph, err := bbhash.New(keys, bbhash.Gamma(2.0))
	if err != nil {
		return nil, fmt.Errorf("build MPHF: %w", err)
	}

	// BBHash returns 1-indexed values
	idx.mph = mph
	idx.refs = make([]wire.Ref, len(keys))
	idx.forms = make([]int, len(keys))
	for j, k := range keys {
		hashVal := mph.Find(k)
		if hashVal == 0 || hashVal > uint64(len(keys)) {
			return nil, fmt.Errorf("MPHF lookup failed for %s", forms[first[j]].Ref)
		}
		pos := hashVal - 1
		idx.refs[pos] = forms[first[j]].Ref
		idx.forms[pos] = first[j]
	}
	return idx, nil
}

// Lookup returns the change form position for ref, or ok=false if no form
// has that reference.
func (idx *Index) Lookup(ref wire.Ref) (int, bool) {
	if idx.mph == nil {
		return 0, false
	}
	hashVal := idx.mph.Find(key(ref))
	if hashVal == 0 || hashVal > uint64(len(idx.refs)) {
		return 0, false
	}
	pos := hashVal - 1
	if idx.refs[pos] != ref {
		return 0, false
	}
	return idx.forms[pos], true
}

// Len returns the number of distinct references indexed.
func (idx *Index) Len() int {
	return len(idx.refs)
}

// Duplicates returns how many forms were skipped for repeating a reference.
func (idx *Index) Duplicates() int {
	return idx.duplicates
}
