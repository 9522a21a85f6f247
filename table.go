package main

// The index table is read-only after buildIndexTable returns. Keys are
// combined forward+reverse index encodings; values are sample ordinals
// in sample-sheet order. When two samples' neighborhoods collide on a
// key, the later sample wins.

// denseKeyBits bounds the key space for the direct-indexed backing: with
// mismatches > 1 the table holds (ball size)^2 entries per sample, so a
// flat array beats a hash map whenever the whole key space fits.
const denseKeyBits = 24

type indexTable struct {
	dense  []int32 // direct-indexed by key, -1 = no sample; nil when map-backed
	sparse map[uint64]int32
}

// buildIndexTable expands every sample's forward and reverse barcodes to
// their mismatch neighborhoods and inserts the full cross product of
// combined keys, in sample order.
func buildIndexTable(samples []Sample, maxMismatches int) (*indexTable, error) {
	keyBits := 0
	uniform := true
	entries := 0
	for i, s := range samples {
		n := len(s.Forward) + len(s.Reverse)
		if n == 0 {
			return nil, configErrorf("sample %s: empty barcode pair", s.ID)
		}
		if n > 32 {
			return nil, configErrorf("sample %s: combined barcode length %d exceeds 32 bases", s.ID, n)
		}
		if i == 0 {
			keyBits = 2 * n
		} else if 2*n != keyBits {
			uniform = false
		}
		entries += ballSize(len(s.Forward), maxMismatches) * ballSize(len(s.Reverse), maxMismatches)
	}

	t := &indexTable{}
	if uniform && keyBits <= denseKeyBits {
		t.dense = make([]int32, 1<<keyBits)
		for i := range t.dense {
			t.dense[i] = -1
		}
	} else {
		t.sparse = make(map[uint64]int32, entries)
	}

	for i, s := range samples {
		fwd := mismatches(s.Forward, maxMismatches)
		rev := mismatches(s.Reverse, maxMismatches)
		if len(fwd) != len(rev) {
			return nil, configErrorf("sample %s: forward and reverse neighborhood sizes differ (%d vs %d)",
				s.ID, len(fwd), len(rev))
		}
		for _, f := range fwd {
			for _, r := range rev {
				key, err := encodeIndexPair([]byte(f), []byte(r))
				if err != nil {
					return nil, configErrorf("sample %s: %v", s.ID, err)
				}
				t.set(key, int32(i))
			}
		}
	}
	return t, nil
}

func (t *indexTable) set(key uint64, ordinal int32) {
	if t.dense != nil {
		t.dense[key] = ordinal
		return
	}
	t.sparse[key] = ordinal
}

// lookup returns the ordinal of the sample owning key.
func (t *indexTable) lookup(key uint64) (int, bool) {
	if t.dense != nil {
		if key >= uint64(len(t.dense)) {
			return 0, false
		}
		if ordinal := t.dense[key]; ordinal >= 0 {
			return int(ordinal), true
		}
		return 0, false
	}
	ordinal, ok := t.sparse[key]
	return int(ordinal), ok
}

func (t *indexTable) len() int {
	if t.dense != nil {
		n := 0
		for _, ordinal := range t.dense {
			if ordinal >= 0 {
				n++
			}
		}
		return n
	}
	return len(t.sparse)
}
