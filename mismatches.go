package main

import (
	"fmt"
	"sort"
)

// indexAlphabet is the set of bases a barcode position may hold. The
// combined-index encoding below assigns each base a fixed base-4 digit,
// so the alphabet order matters.
const indexAlphabet = "ATCG"

// mismatches returns every sequence within Hamming distance dist of
// input, including input itself. Each round of expansion substitutes one
// position with every other base, so after dist rounds the result is
// exactly the Hamming ball of radius dist. dist=0 yields only the input.
func mismatches(input string, dist int) []string {
	seen := map[string]struct{}{input: {}}
	frontier := []string{input}

	for ; dist > 0; dist-- {
		next := make([]string, 0, len(frontier)*len(input)*(len(indexAlphabet)-1))
		for _, cur := range frontier {
			for i := 0; i < len(cur); i++ {
				for j := 0; j < len(indexAlphabet); j++ {
					c := indexAlphabet[j]
					if cur[i] == c {
						continue
					}
					mutated := cur[:i] + string(c) + cur[i+1:]
					if _, alreadySeen := seen[mutated]; !alreadySeen {
						seen[mutated] = struct{}{}
						next = append(next, mutated)
					}
				}
			}
		}
		frontier = next
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ballSize is the number of sequences within Hamming distance dist of a
// sequence of the given length: sum of C(length,i)*3^i for i=0..dist.
func ballSize(length, dist int) int {
	total := 0
	choose := 1
	pow3 := 1
	for i := 0; i <= dist && i <= length; i++ {
		total += choose * pow3
		choose = choose * (length - i) / (i + 1)
		pow3 *= 3
	}
	return total
}

func baseDigit(b byte) int {
	switch b {
	case 'A':
		return 0
	case 'T':
		return 1
	case 'C':
		return 2
	case 'G':
		return 3
	}
	return -1
}

// encodeIndexPair packs the concatenation of a forward and reverse index
// sequence into a base-4 integer (A=0, T=1, C=2, G=3, most significant
// digit first). Any byte outside ACGT is an error; such a sequence can
// never name a table entry.
func encodeIndexPair(fwd, rev []byte) (uint64, error) {
	if len(fwd)+len(rev) > 32 {
		return 0, fmt.Errorf("combined index length %d exceeds 32 bases", len(fwd)+len(rev))
	}
	var key uint64
	for _, part := range [2][]byte{fwd, rev} {
		for _, b := range part {
			d := baseDigit(b)
			if d < 0 {
				return 0, fmt.Errorf("invalid base %q in index sequence", b)
			}
			key = key<<2 | uint64(d)
		}
	}
	return key, nil
}
