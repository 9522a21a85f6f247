package main

import (
	"path/filepath"

	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
)

const (
	undeterminedID      = "Undetermined"
	undeterminedOrdinal = -1
)

// recordWriter appends formatted records to one output file. Compression
// is picked by xopen from the filename extension.
type recordWriter struct {
	fh *xopen.Writer
}

func newRecordWriter(filename string) (*recordWriter, error) {
	fh, err := xopen.Wopen(filename)
	if err != nil {
		return nil, err
	}
	return &recordWriter{fh: fh}, nil
}

func (w *recordWriter) Write(record *fastx.Record) {
	record.FormatToWriter(w.fh, 0)
}

func (w *recordWriter) Close() error {
	return w.fh.Close()
}

// sinkSet owns one forward/reverse writer pair per sample plus the
// Undetermined pair, in sample-ordinal order with Undetermined last.
// The set is fixed for the whole run and closed exactly once.
type sinkSet struct {
	forward []*recordWriter
	reverse []*recordWriter
	closed  bool
}

func openSinks(config *Config) (*sinkSet, error) {
	s := &sinkSet{}
	ids := make([]string, 0, len(config.Samples)+1)
	for _, sample := range config.Samples {
		ids = append(ids, sample.ID)
	}
	ids = append(ids, undeterminedID)

	for _, id := range ids {
		fw, err := newRecordWriter(filepath.Join(config.OutputDir, id+config.SuffixR1+config.CompressExt))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.forward = append(s.forward, fw)

		rv, err := newRecordWriter(filepath.Join(config.OutputDir, id+config.SuffixR2+config.CompressExt))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.reverse = append(s.reverse, rv)
	}
	return s, nil
}

// Write appends the biological read pair to the pair of sinks named by
// ordinal; undeterminedOrdinal selects the Undetermined pair.
func (s *sinkSet) Write(ordinal int, read1, read2 *fastx.Record) {
	if ordinal == undeterminedOrdinal {
		ordinal = len(s.forward) - 1
	}
	s.forward[ordinal].Write(read1)
	s.reverse[ordinal].Write(read2)
}

func (s *sinkSet) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var firstErr error
	for _, writers := range [][]*recordWriter{s.forward, s.reverse} {
		for _, w := range writers {
			if w == nil {
				continue
			}
			if err := w.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
