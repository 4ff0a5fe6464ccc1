package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/urfave/cli/v3"

	"v.io/v23/glob"

	"github.com/rendseq/rendgo/utils"
)

const defaultExcludeContigs = "{*_alt,*_decoy,*_random,chrUn*,HLA*,chrM,chrEBV}"

var (
	infile string
	prefix string
)

var ConvertCmd = &cli.Command{
	Name:      "convert",
	Usage:     "Convert aligned reads to strand-specific 5' end count tracks",
	UsageText: "rendgo convert [options] <input.bam/cram> <prefix>",
	ArgsUsage: "<input.bam/cram> <prefix>",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:        "bam/cram",
			UsageText:   "Input BAM or CRAM file to convert. If a CRAM file is provided, a reference genome must be specified using the --reference flag.",
			Destination: &infile,
		},
		&cli.StringArg{
			Name:        "prefix",
			UsageText:   "Prefix for output files. One wig per chromosome and strand, or <prefix>.npz with --npz.",
			Destination: &prefix,
		},
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      "reference",
			Aliases:   []string{"r"},
			Usage:     "Reference genome file for cram conversion.",
			TakesFile: true,
			Action: func(ctx context.Context, cmd *cli.Command, v string) error {
				if _, err := os.Stat(v); os.IsNotExist(err) {
					return cli.Exit("Error: Reference file does not exist", 1)
				}
				return nil
			},
		},
		&cli.IntFlag{
			Name:        "mapq",
			Usage:       "Minimum mapping quality for a read to be counted",
			Value:       1,
			DefaultText: "1",
			Action: func(ctx context.Context, cmd *cli.Command, v int) error {
				if v < 0 {
					return cli.Exit("Error: Mapping quality must be non-negative", 1)
				}
				return nil
			},
		},
		&cli.BoolFlag{
			Name:    "normdup",
			Aliases: []string{"no-remove-duplicates"},
			Usage:   "Do not remove duplicates",
			Value:   false,
		},
		&cli.StringFlag{
			Name:        "exclude-contigs",
			Aliases:     []string{"e"},
			Usage:       "Glob pattern to exclude certain contigs from conversion",
			DefaultText: defaultExcludeContigs,
			Value:       defaultExcludeContigs,
		},
		&cli.BoolFlag{
			Name:  "npz",
			Usage: "Write a single .npz archive instead of one wig per chromosome and strand",
			Value: false,
		},
	},
	Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cmd.Args().Len() != 2 {
			cli.ShowSubcommandHelp(cmd)
			return nil, cli.Exit("Error: Incorrect number of arguments. Expected 2 arguments while "+strconv.Itoa(cmd.Args().Len())+" were given", 1)
		}
		if _, err := os.Stat(infile); os.IsNotExist(err) {
			return nil, cli.Exit("Error: Input file does not exist", 1)
		}
		if filepath.Ext(infile) == ".cram" && cmd.String("reference") == "" {
			return nil, cli.Exit("Error: Reference genome must be specified for CRAM files using the --reference flag", 1)
		}
		return ctx, nil
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return RendConvert(infile, prefix, cmd.String("reference"), int(cmd.Int("mapq")),
			cmd.Bool("normdup"), cmd.String("exclude-contigs"), cmd.Bool("npz"))
	},
}

type reader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (r *reader) Close() error {
	if err := r.cmd.Wait(); err != nil {
		return err
	}
	return r.ReadCloser.Close()
}

// NewReader returns a bam.Reader from any path that samtools can read.
// This is a patch to enable cram compatibilty
func NewReader(path string, rd int, fasta string) (*bam.Reader, error) {
	if filepath.Ext(path) != ".cram" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return bam.NewReader(f, rd)
	}
	cmd := exec.Command("samtools", "view", "-T", fasta, "-b", "-u", "-h", path)
	cmd.Stderr = os.Stderr
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err = cmd.Start(); err != nil {
		pipe.Close()
		return nil, err
	}
	cr := &reader{ReadCloser: pipe, cmd: cmd}
	return bam.NewReader(cr, rd)
}

// RendConvert counts read 5' ends per chromosome and strand. Rend-seq
// signal lives in the exact end positions of the sequenced fragments, so
// each accepted read contributes a single count: its leftmost aligned
// position on the forward strand, its rightmost on the reverse strand.
func RendConvert(infile string, prefix string, reference string, minMapQ int, keepDup bool, excludeContigs string, asNpz bool) error {
	b, err := NewReader(infile, 0, reference)
	if err != nil {
		return fmt.Errorf("unable to read bam file %s: %w", infile, err)
	}
	defer b.Close()

	if excludeContigs == "" {
		excludeContigs = defaultExcludeContigs
	}
	excludeContigsGlob, err := glob.Parse(excludeContigs)
	if err != nil {
		return fmt.Errorf("unable to parse contig exclusion glob: %w", err)
	}

	forward := make(map[string]map[int]float64)
	reverse := make(map[string]map[int]float64)
	currentChromosome := ""

	for {
		samRecord, err := b.Read()
		if err != nil {
			break
		}

		if excludeContigsGlob.Head().Match(samRecord.Ref.Name()) {
			continue
		}
		if currentChromosome != samRecord.Ref.Name() {
			slog.Info("processing chromosome: " + samRecord.Ref.Name())
			currentChromosome = samRecord.Ref.Name()
		}

		if samRecord.Flags&sam.Unmapped != 0 ||
			samRecord.Flags&sam.Secondary != 0 ||
			samRecord.Flags&sam.Supplementary != 0 {
			continue
		}
		if samRecord.Flags&sam.Duplicate != 0 && !keepDup {
			continue
		}
		if int(samRecord.MapQ) < minMapQ {
			continue
		}

		strand := forward
		end := samRecord.Pos + 1
		if samRecord.Flags&sam.Reverse != 0 {
			strand = reverse
			end = samRecord.End()
		}
		chrom := samRecord.Ref.Name()
		if strand[chrom] == nil {
			strand[chrom] = make(map[int]float64)
		}
		strand[chrom][end]++
	}

	tracks := make(map[string]utils.Series)
	for chrom, counts := range forward {
		tracks[chrom+".f"] = utils.SeriesFromCounts(counts)
	}
	for chrom, counts := range reverse {
		tracks[chrom+".r"] = utils.SeriesFromCounts(counts)
	}

	if asNpz {
		outfile := prefix + ".npz"
		if err := utils.WriteNpzTracks(outfile, tracks); err != nil {
			return err
		}
		slog.Info("wrote end counts", "file", outfile, "tracks", len(tracks))
		return nil
	}
	for name, series := range tracks {
		outfile := prefix + "_" + name + ".wig"
		chrom := name[:len(name)-len(".f")]
		if err := utils.WriteWig(series, outfile, chrom); err != nil {
			return err
		}
		slog.Info("wrote end counts", "file", outfile)
	}
	return nil
}
