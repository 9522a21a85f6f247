package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shenwei356/xopen"
)

// Sample is one row of the sample sheet. Ordinals follow sheet order.
type Sample struct {
	ID      string
	Forward string
	Reverse string
}

// Config is everything the main pass needs, assembled and validated
// before any input record is read.
type Config struct {
	Samples     []Sample
	Mismatches  int
	ScoresMin   int
	ScoresMean  int
	OutputDir   string
	CompressExt string // "", ".gz" or ".bz2", appended to every output sink
	Verbose     bool
	Limit       int // max read-pairs to process, 0 = all

	Index1, Index2, Read1, Read2 string
	SuffixR1, SuffixR2           string // per-sample output name = id + suffix + ext
}

// ConfigError marks problems detected before the main pass: bad flags,
// a bad sample sheet, or unclassifiable input files.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

type options struct {
	samplesFile string
	mismatches  int
	scoresMin   int
	scoresMean  int
	outputDir   string
	compress    string
	verbose     bool
	limit       int
}

var compressExts = map[string]string{
	"none":  "",
	"gzip":  ".gz",
	"bzip2": ".bz2",
}

func newConfig(opts options, inputs []string) (*Config, error) {
	if opts.mismatches < 0 || opts.mismatches > 3 {
		return nil, configErrorf("mismatches must be between 0 and 3, got %d", opts.mismatches)
	}
	if opts.scoresMin < 0 || opts.scoresMin > 40 {
		return nil, configErrorf("scores-min must be between 0 and 40, got %d", opts.scoresMin)
	}
	if opts.scoresMean < 0 || opts.scoresMean > 40 {
		return nil, configErrorf("scores-mean must be between 0 and 40, got %d", opts.scoresMean)
	}
	if opts.limit < 0 {
		return nil, configErrorf("limit must not be negative, got %d", opts.limit)
	}
	ext, ok := compressExts[opts.compress]
	if !ok {
		return nil, configErrorf("unknown compression mode %q (want none, gzip or bzip2)", opts.compress)
	}

	config := &Config{
		Mismatches:  opts.mismatches,
		ScoresMin:   opts.scoresMin,
		ScoresMean:  opts.scoresMean,
		OutputDir:   opts.outputDir,
		CompressExt: ext,
		Verbose:     opts.verbose,
		Limit:       opts.limit,
	}

	if err := config.classifyInputs(inputs); err != nil {
		return nil, err
	}

	var err error
	if config.SuffixR1, err = outputSuffix(config.Read1, "_R1"); err != nil {
		return nil, err
	}
	if config.SuffixR2, err = outputSuffix(config.Read2, "_R2"); err != nil {
		return nil, err
	}

	if config.Samples, err = readSampleSheet(opts.samplesFile); err != nil {
		return nil, err
	}
	return config, nil
}

var inputRoleRe = regexp.MustCompile(`_(I1|I2|R1|R2)[._]`)

// classifyInputs assigns the four positional files to the index-1,
// index-2, read-1 and read-2 roles by the _I1/_I2/_R1/_R2 token in
// their basenames.
func (c *Config) classifyInputs(inputs []string) error {
	if len(inputs) != 4 {
		return configErrorf("exactly four input files required (index1, index2, read1, read2), got %d", len(inputs))
	}
	byRole := make(map[string]string, 4)
	for _, path := range inputs {
		base := filepath.Base(path)
		matches := inputRoleRe.FindAllStringSubmatch(base, -1)
		if len(matches) == 0 {
			return configErrorf("cannot classify input %q: no _I1/_I2/_R1/_R2 token in filename", path)
		}
		role := matches[0][1]
		for _, m := range matches[1:] {
			if m[1] != role {
				return configErrorf("cannot classify input %q: conflicting tokens _%s and _%s", path, role, m[1])
			}
		}
		if prev, dup := byRole[role]; dup {
			return configErrorf("both %q and %q look like the %s file", prev, path, role)
		}
		byRole[role] = path
	}
	for _, role := range []string{"I1", "I2", "R1", "R2"} {
		if _, ok := byRole[role]; !ok {
			return configErrorf("no input file matches the %s role", role)
		}
	}
	c.Index1 = byRole["I1"]
	c.Index2 = byRole["I2"]
	c.Read1 = byRole["R1"]
	c.Read2 = byRole["R2"]
	return nil
}

// outputSuffix derives the per-sample output suffix from a read file's
// basename: everything from the role token onward, minus any compression
// extension. The configured codec's extension is re-appended at open time.
func outputSuffix(path, token string) (string, error) {
	base := filepath.Base(path)
	i := strings.Index(base, token)
	if i < 0 {
		return "", configErrorf("cannot derive output suffix from %q: no %s token", path, token)
	}
	suffix := base[i:]
	for _, ext := range []string{".gz", ".bz2", ".xz", ".zst"} {
		suffix = strings.TrimSuffix(suffix, ext)
	}
	return suffix, nil
}

// readSampleSheet loads the tab-separated sheet: sample id, forward
// barcode, reverse barcode, one sample per line, no header.
func readSampleSheet(path string) ([]Sample, error) {
	if path == "" {
		return nil, configErrorf("no sample sheet given")
	}
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, configErrorf("cannot read sample sheet %q: %v", path, err)
	}
	defer fh.Close()

	var samples []Sample
	lineNo := 0
	for {
		line, err := fh.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, configErrorf("cannot read sample sheet %q: %v", path, err)
		}
		if line != "" {
			lineNo++
		}
		if text := strings.TrimRight(line, "\r\n"); text != "" {
			fields := strings.Split(text, "\t")
			if len(fields) < 3 {
				return nil, configErrorf("sample sheet %s line %d: want 3 tab-separated columns, got %d", path, lineNo, len(fields))
			}
			sample := Sample{ID: fields[0], Forward: fields[1], Reverse: fields[2]}
			if sample.ID == "" {
				return nil, configErrorf("sample sheet %s line %d: empty sample id", path, lineNo)
			}
			for _, barcode := range []string{sample.Forward, sample.Reverse} {
				if bad := invalidBase(barcode); bad != "" {
					return nil, configErrorf("sample sheet %s line %d: barcode %q contains non-ACGT base %s",
						path, lineNo, barcode, bad)
				}
			}
			samples = append(samples, sample)
		}
		if err == io.EOF {
			break
		}
	}
	if len(samples) == 0 {
		return nil, configErrorf("sample sheet %q holds no samples", path)
	}
	return samples, nil
}

func invalidBase(barcode string) string {
	if barcode == "" {
		return `""`
	}
	for i := 0; i < len(barcode); i++ {
		if baseDigit(barcode[i]) < 0 {
			return fmt.Sprintf("%q", barcode[i])
		}
	}
	return ""
}

func isConfigError(err error) bool {
	var cerr *ConfigError
	return errors.As(err, &cerr)
}
