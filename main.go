package main

import (
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		log.Print("Error: ", err)
		if isConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		opts       options
		cpuprofile string
		memprofile string
	)

	cmd := &cobra.Command{
		Use:   "demultiplexer [flags] INDEX1 INDEX2 READ1 READ2",
		Short: "Assign paired-end reads to samples by their dual inline indexes",
		Long: `Demultiplexer splits a pooled paired-end sequencing run into per-sample
fastq files using the two index reads that accompany every read-pair.
Index pairs are matched against the sample sheet with a configurable
number of mismatches; pairs whose index quality is too low, or whose
indexes match no sample, go to the Undetermined files. Two reports list
the most common unmatched index sequences.

The four input files are told apart by the _I1/_I2/_R1/_R2 token in
their filenames and may be given in any order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 4 {
				return configErrorf("exactly four input files required (index1, index2, read1, read2), got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					log.Fatal("could not create CPU profile: ", err)
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					log.Fatal("could not start CPU profile: ", err)
				}
				defer pprof.StopCPUProfile()
			}

			log.Println("Reading sample sheet")
			config, err := newConfig(opts, args)
			if err != nil {
				return err
			}

			log.Println("Starting demux")
			stats, err := demux(config)
			if err != nil {
				return err
			}
			stats.logSummary()
			log.Println("done")

			if memprofile != "" {
				f, err := os.Create(memprofile)
				if err != nil {
					log.Fatal("could not create memory profile: ", err)
				}
				defer f.Close()
				runtime.GC() // get up-to-date statistics
				if err := pprof.WriteHeapProfile(f); err != nil {
					log.Fatal("could not write memory profile: ", err)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.samplesFile, "samples", "s", "", "sample sheet: TSV with sample id, forward barcode, reverse barcode")
	flags.IntVarP(&opts.mismatches, "mismatches", "m", 1, "maximum mismatches allowed per index (0-3)")
	flags.IntVar(&opts.scoresMin, "scores-min", 16, "minimum quality at any index position (0-40)")
	flags.IntVar(&opts.scoresMean, "scores-mean", 16, "minimum mean index quality (0-40)")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", ".", "output directory, created if absent")
	flags.StringVarP(&opts.compress, "compress", "c", "none", "compress output files (none, gzip or bzip2)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "re-render running counters while processing")
	flags.IntVar(&opts.limit, "limit", 0, "stop after this many read-pairs (0 = process everything)")
	flags.StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	flags.StringVar(&memprofile, "memprofile", "", "write memory profile to `file`")
	cmd.MarkFlagRequired("samples")

	return cmd
}
