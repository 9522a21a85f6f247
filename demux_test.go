package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

type fqRecord struct {
	id   string
	seq  string
	qual string
}

func writeFastq(t *testing.T, path string, records []fqRecord) {
	t.Helper()
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	for _, r := range records {
		if _, err := fh.WriteString("@" + r.id + "\n" + r.seq + "\n+\n" + r.qual + "\n"); err != nil {
			t.Fatal(err)
		}
	}
}

func readFastq(t *testing.T, path string) []fqRecord {
	t.Helper()
	reader, err := fastx.NewReader(seq.DNAredundant, path, fastx.DefaultIDRegexp)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	var records []fqRecord
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		records = append(records, fqRecord{
			id:   string(record.ID),
			seq:  string(record.Seq.Seq),
			qual: string(record.Seq.Qual),
		})
	}
	return records
}

// buildRun writes the four input streams and returns their paths in
// shuffled positional order, exercising role classification.
func buildRun(t *testing.T, dir string, i1, i2, r1, r2 []fqRecord) []string {
	t.Helper()
	paths := map[string]string{
		"run_I1.fastq": "",
		"run_I2.fastq": "",
		"run_R1.fastq": "",
		"run_R2.fastq": "",
	}
	for name := range paths {
		paths[name] = filepath.Join(dir, name)
	}
	writeFastq(t, paths["run_I1.fastq"], i1)
	writeFastq(t, paths["run_I2.fastq"], i2)
	writeFastq(t, paths["run_R1.fastq"], r1)
	writeFastq(t, paths["run_R2.fastq"], r2)
	return []string{
		paths["run_R2.fastq"],
		paths["run_I1.fastq"],
		paths["run_R1.fastq"],
		paths["run_I2.fastq"],
	}
}

const q30x4 = "????" // Phred 30 at every position
const q10x4 = "++++" // Phred 10 at every position

func scenarioInputs(t *testing.T, dir string) []string {
	i1 := []fqRecord{
		{"p1", "ACGT", q30x4}, // exact match
		{"p2", "ACGA", q30x4}, // one substitution on the forward index
		{"p3", "ACGT", q10x4}, // mean quality too low
		{"p4", "TTTT", q30x4}, // matches no sample
	}
	i2 := []fqRecord{
		{"p1", "TGCA", q30x4},
		{"p2", "TGCA", q30x4},
		{"p3", "TGCA", q30x4},
		{"p4", "GGGG", q30x4},
	}
	r1 := []fqRecord{
		{"p1", "CCCAAA", "IIIIII"},
		{"p2", "GGGAAA", "IIIIII"},
		{"p3", "TTTAAA", "IIIIII"},
		{"p4", "AACCGG", "IIIIII"},
	}
	r2 := []fqRecord{
		{"p1", "TTTGGG", "IIIIII"},
		{"p2", "CCCGGG", "IIIIII"},
		{"p3", "AAAGGG", "IIIIII"},
		{"p4", "GGTTCC", "IIIIII"},
	}
	return buildRun(t, dir, i1, i2, r1, r2)
}

func scenarioOptions(t *testing.T, outputDir string) options {
	return options{
		samplesFile: writeSampleSheet(t, "sample1\tACGT\tTGCA\n"),
		mismatches:  1,
		scoresMin:   15,
		scoresMean:  16,
		outputDir:   outputDir,
		compress:    "none",
	}
}

func recordIDs(records []fqRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.id
	}
	return ids
}

func TestDemuxEndToEnd(t *testing.T) {
	inputs := scenarioInputs(t, t.TempDir())
	out := filepath.Join(t.TempDir(), "demuxed") // exercises MkdirAll

	config, err := newConfig(scenarioOptions(t, out), inputs)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := demux(config)
	if err != nil {
		t.Fatal(err)
	}

	if stats.count != 8 || stats.match != 4 || stats.undetermined != 4 {
		t.Errorf("count/match/undetermined = %d/%d/%d, want 8/4/4",
			stats.count, stats.match, stats.undetermined)
	}
	if stats.match+stats.undetermined != stats.count {
		t.Error("match + undetermined must equal count")
	}
	if stats.gate[gateIndex1MeanLow] != 2 {
		t.Errorf("index1-mean-low = %d, want 2", stats.gate[gateIndex1MeanLow])
	}

	sampleR1 := readFastq(t, filepath.Join(out, "sample1_R1.fastq"))
	if ids := recordIDs(sampleR1); stringSlicesDiffer([]string{"p1", "p2"}, ids) {
		t.Fatalf("sample1 forward reads: %v, want [p1 p2]", ids)
	}
	if sampleR1[0].seq != "CCCAAA" || sampleR1[1].seq != "GGGAAA" {
		t.Errorf("biological reads modified: %+v", sampleR1)
	}
	sampleR2 := readFastq(t, filepath.Join(out, "sample1_R2.fastq"))
	if ids := recordIDs(sampleR2); stringSlicesDiffer([]string{"p1", "p2"}, ids) {
		t.Errorf("sample1 reverse reads: %v, want [p1 p2]", ids)
	}

	undeterminedR1 := readFastq(t, filepath.Join(out, "Undetermined_R1.fastq"))
	if ids := recordIDs(undeterminedR1); stringSlicesDiffer([]string{"p3", "p4"}, ids) {
		t.Errorf("undetermined forward reads: %v, want [p3 p4]", ids)
	}

	fwd, err := os.ReadFile(filepath.Join(out, forwardReportName))
	if err != nil {
		t.Fatal(err)
	}
	if string(fwd) != "1\tTTTT\n" {
		t.Errorf("forward report %q, want %q", fwd, "1\tTTTT\n")
	}
	rev, err := os.ReadFile(filepath.Join(out, reverseReportName))
	if err != nil {
		t.Fatal(err)
	}
	if string(rev) != "1\tGGGG\n" {
		t.Errorf("reverse report %q, want %q", rev, "1\tGGGG\n")
	}
}

func TestDemuxTruncatesOnShortestStream(t *testing.T) {
	dir := t.TempDir()
	i1 := []fqRecord{{"p1", "ACGT", q30x4}, {"p2", "ACGT", q30x4}}
	full := []fqRecord{
		{"p1", "TGCA", q30x4},
		{"p2", "TGCA", q30x4},
		{"p3", "TGCA", q30x4},
		{"p4", "TGCA", q30x4},
	}
	reads := []fqRecord{
		{"p1", "AAAA", "IIII"},
		{"p2", "CCCC", "IIII"},
		{"p3", "GGGG", "IIII"},
		{"p4", "TTTT", "IIII"},
	}
	inputs := buildRun(t, dir, i1, full, reads, reads)

	config, err := newConfig(scenarioOptions(t, filepath.Join(dir, "out")), inputs)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := demux(config)
	if err != nil {
		t.Fatal(err)
	}
	if stats.count != 4 {
		t.Errorf("count = %d, want 4 (two pairs)", stats.count)
	}
}

func TestDemuxLimit(t *testing.T) {
	inputs := scenarioInputs(t, t.TempDir())

	opts := scenarioOptions(t, filepath.Join(t.TempDir(), "out"))
	opts.limit = 1
	config, err := newConfig(opts, inputs)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := demux(config)
	if err != nil {
		t.Fatal(err)
	}
	if stats.count != 2 || stats.match != 2 {
		t.Errorf("count/match = %d/%d, want 2/2", stats.count, stats.match)
	}
}

func TestDemuxGzipOutput(t *testing.T) {
	dir := t.TempDir()
	one := []fqRecord{{"p1", "ACGT", q30x4}}
	inputs := buildRun(t, dir,
		one,
		[]fqRecord{{"p1", "TGCA", q30x4}},
		[]fqRecord{{"p1", "AAAACC", "IIIIII"}},
		[]fqRecord{{"p1", "GGTTTT", "IIIIII"}},
	)

	opts := scenarioOptions(t, filepath.Join(dir, "out"))
	opts.compress = "gzip"
	config, err := newConfig(opts, inputs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := demux(config); err != nil {
		t.Fatal(err)
	}

	records := readFastq(t, filepath.Join(opts.outputDir, "sample1_R1.fastq.gz"))
	if len(records) != 1 || records[0].seq != "AAAACC" {
		t.Errorf("gzipped output: %+v", records)
	}
}
