package main

import (
	"io"
	"os"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

// readQuad is one record from each input stream, aligned by position
// only; record ids are not cross-checked.
type readQuad struct {
	index1, index2 *fastx.Record
	read1, read2   *fastx.Record
}

// streamSet advances the four fastq streams in lockstep.
type streamSet struct {
	index1, index2, read1, read2 *fastx.Reader
}

func openStreams(config *Config) (*streamSet, error) {
	s := &streamSet{}
	for _, in := range []struct {
		path string
		dst  **fastx.Reader
	}{
		{config.Index1, &s.index1},
		{config.Index2, &s.index2},
		{config.Read1, &s.read1},
		{config.Read2, &s.read2},
	} {
		reader, err := fastx.NewReader(seq.DNAredundant, in.path, fastx.DefaultIDRegexp)
		if err != nil {
			s.Close()
			return nil, err
		}
		*in.dst = reader
	}
	return s, nil
}

// next pulls one record from every stream. It returns nil once any
// stream is exhausted; unequal stream lengths truncate the pass there.
func (s *streamSet) next() (*readQuad, error) {
	q := &readQuad{}
	done := false
	for _, src := range []struct {
		reader *fastx.Reader
		dst    **fastx.Record
	}{
		{s.index1, &q.index1},
		{s.index2, &q.index2},
		{s.read1, &q.read1},
		{s.read2, &q.read2},
	} {
		record, err := src.reader.Read()
		if err == io.EOF {
			done = true
			continue
		}
		if err != nil {
			return nil, err
		}
		*src.dst = record
	}
	if done {
		return nil, nil
	}
	return q, nil
}

func (s *streamSet) Close() {
	for _, reader := range []*fastx.Reader{s.index1, s.index2, s.read1, s.read2} {
		if reader != nil {
			reader.Close()
		}
	}
}

// demux runs the whole single-threaded pass: build the index table, open
// streams and sinks, route every read-pair, then write the mismatch
// reports. Sinks are closed on every exit path.
func demux(config *Config) (*tally, error) {
	table, err := buildIndexTable(config.Samples, config.Mismatches)
	if err != nil {
		return nil, err
	}

	streams, err := openStreams(config)
	if err != nil {
		return nil, err
	}
	defer streams.Close()

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return nil, err
	}
	sinks, err := openSinks(config)
	if err != nil {
		return nil, err
	}

	stats := newTally(config.Verbose)
	err = route(config, table, streams, sinks, stats)
	stats.finish()
	if cerr := sinks.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return stats, err
	}

	stats.dropKnownBarcodes(config.Samples)
	if err := stats.writeReports(config.OutputDir); err != nil {
		return stats, err
	}
	return stats, nil
}

// route classifies one quadruple at a time: quality gate first, then a
// table lookup on the raw index sequences. Counters move in units of 2,
// one per read in the pair.
func route(config *Config, table *indexTable, streams *streamSet, sinks *sinkSet, stats *tally) error {
	pairs := 0
	for {
		if config.Limit > 0 && pairs >= config.Limit {
			break
		}
		q, err := streams.next()
		if err != nil {
			return err
		}
		if q == nil {
			break
		}
		pairs++

		q1 := scoreQuality(q.index1.Seq.Qual)
		q2 := scoreQuality(q.index2.Seq.Qual)
		if reason := gateIndexPair(q1, q2, config.ScoresMin, config.ScoresMean); reason != gatePass {
			sinks.Write(undeterminedOrdinal, q.read1, q.read2)
			stats.gated(reason)
			continue
		}

		ordinal := undeterminedOrdinal
		if key, err := encodeIndexPair(q.index1.Seq.Seq, q.index2.Seq.Seq); err == nil {
			if i, ok := table.lookup(key); ok {
				ordinal = i
			}
		}
		sinks.Write(ordinal, q.read1, q.read2)
		if ordinal == undeterminedOrdinal {
			stats.unmatched(string(q.index1.Seq.Seq), string(q.index2.Seq.Seq))
		} else {
			stats.matched()
		}
	}
	return nil
}
