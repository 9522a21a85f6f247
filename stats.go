package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shenwei356/xopen"
)

const (
	forwardReportName = "Undetermined_forward.tsv"
	reverseReportName = "Undetermined_reverse.tsv"

	// how often the verbose display re-renders, in processed units
	refreshUnits = 1000
)

// tally accumulates the run's counters in units of 2 (one per read in a
// pair) plus the two histograms of unmatched raw index sequences.
type tally struct {
	count        int
	match        int
	undetermined int
	gate         [len(gateReasonNames)]int

	fwdMismatch map[string]int
	revMismatch map[string]int

	started time.Time
	bar     *progressbar.ProgressBar
}

func newTally(verbose bool) *tally {
	t := &tally{
		fwdMismatch: make(map[string]int),
		revMismatch: make(map[string]int),
		started:     time.Now(),
	}
	if verbose {
		t.bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetDescription("demultiplexing"),
		)
	}
	return t
}

func (t *tally) matched() {
	t.match += 2
	t.bump()
}

func (t *tally) gated(reason gateReason) {
	t.undetermined += 2
	t.gate[reason] += 2
	t.bump()
}

func (t *tally) unmatched(fwd, rev string) {
	t.undetermined += 2
	t.fwdMismatch[fwd]++
	t.revMismatch[rev]++
	t.bump()
}

func (t *tally) bump() {
	t.count += 2
	if t.bar != nil {
		t.bar.Add(2)
		if t.count%refreshUnits == 0 {
			t.bar.Describe(t.statusLine())
		}
	}
}

func (t *tally) finish() {
	if t.bar != nil {
		t.bar.Describe(t.statusLine())
		t.bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}

func (t *tally) statusLine() string {
	return fmt.Sprintf("count: %d  match: %d  undetermined: %d  elapsed: %s",
		t.count, t.match, t.undetermined, time.Since(t.started).Round(time.Second))
}

// dropKnownBarcodes removes histogram entries that exactly equal a
// sample barcode for that side; the reports only list sequences that
// belong to no sample.
func (t *tally) dropKnownBarcodes(samples []Sample) {
	for _, s := range samples {
		delete(t.fwdMismatch, s.Forward)
		delete(t.revMismatch, s.Reverse)
	}
}

// writeReports writes the two mismatch histograms, one line per
// sequence as count<TAB>sequence, most frequent first.
func (t *tally) writeReports(outputDir string) error {
	if err := writeHistogram(filepath.Join(outputDir, forwardReportName), t.fwdMismatch); err != nil {
		return err
	}
	return writeHistogram(filepath.Join(outputDir, reverseReportName), t.revMismatch)
}

func writeHistogram(filename string, histogram map[string]int) error {
	fh, err := xopen.Wopen(filename)
	if err != nil {
		return err
	}

	type entry struct {
		seq   string
		count int
	}
	entries := make([]entry, 0, len(histogram))
	for seq, count := range histogram {
		entries = append(entries, entry{seq: seq, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].seq < entries[j].seq
	})

	for _, e := range entries {
		if _, err := fmt.Fprintf(fh, "%d\t%s\n", e.count, e.seq); err != nil {
			fh.Close()
			return err
		}
	}
	return fh.Close()
}

func (t *tally) logSummary() {
	log.Printf("count: %d", t.count)
	log.Printf("match: %d", t.match)
	log.Printf("undetermined: %d", t.undetermined)
	for reason := gateIndex1MeanLow; reason <= gateIndex2MinLow; reason++ {
		log.Printf("%s: %d", reason, t.gate[reason])
	}
}
