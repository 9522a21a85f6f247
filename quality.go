package main

// Index reads carry Phred+33 qualities. A pair of index reads must clear
// both the mean and the minimum-position thresholds before its sequences
// are looked up in the index table.

const phredOffset = 33

type indexQuality struct {
	min  int
	mean float64
}

func scoreQuality(qual []byte) indexQuality {
	if len(qual) == 0 {
		return indexQuality{}
	}
	min := int(qual[0]) - phredOffset
	sum := 0
	for _, q := range qual {
		score := int(q) - phredOffset
		sum += score
		if score < min {
			min = score
		}
	}
	return indexQuality{min: min, mean: float64(sum) / float64(len(qual))}
}

type gateReason int

const (
	gatePass gateReason = iota
	gateIndex1MeanLow
	gateIndex2MeanLow
	gateIndex1MinLow
	gateIndex2MinLow
)

var gateReasonNames = [...]string{
	gatePass:          "pass",
	gateIndex1MeanLow: "index1-mean-low",
	gateIndex2MeanLow: "index2-mean-low",
	gateIndex1MinLow:  "index1-min-low",
	gateIndex2MinLow:  "index2-min-low",
}

func (r gateReason) String() string { return gateReasonNames[r] }

// gateIndexPair checks both index reads against the thresholds. The
// first failing check names the rejection; only that one is reported
// even when several hold at once.
func gateIndexPair(q1, q2 indexQuality, scoresMin, scoresMean int) gateReason {
	switch {
	case q1.mean < float64(scoresMean):
		return gateIndex1MeanLow
	case q2.mean < float64(scoresMean):
		return gateIndex2MeanLow
	case q1.min < scoresMin:
		return gateIndex1MinLow
	case q2.min < scoresMin:
		return gateIndex2MinLow
	}
	return gatePass
}
