package zscores

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/rendseq/rendgo/utils"
)

var (
	infile string // Input wig file with raw read counts
)

var ZScoresCmd = &cli.Command{
	Name:      "zscores",
	Usage:     "Transform a raw read count track into robust local z-scores",
	UsageText: "rendgo zscores [options] <input.wig>",
	ArgsUsage: "<input.wig>",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:        "input.wig",
			UsageText:   "Input wig file containing raw read counts for a single chromosome.",
			Destination: &infile,
		},
	},
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:        "gap",
			Usage:       "Number of positions adjacent to the target excluded from its background windows",
			Value:       5,
			DefaultText: "5",
			Action: func(ctx context.Context, cmd *cli.Command, v int) error {
				if v < 0 {
					return cli.Exit("Error: Gap must be a non-negative integer", 1)
				}
				return nil
			},
		},
		&cli.IntFlag{
			Name:        "w-sz",
			Usage:       "Width (in position units) of each one-sided background window",
			Value:       50,
			DefaultText: "50",
			Action: func(ctx context.Context, cmd *cli.Command, v int) error {
				if v < 1 {
					return cli.Exit("Error: Window size must be a positive integer", 1)
				}
				return nil
			},
		},
		&cli.Float64Flag{
			Name:        "min-r",
			Usage:       "Minimum summed read count required in a one-sided window for its score to be trusted",
			Value:       20,
			DefaultText: "20",
			Action: func(ctx context.Context, cmd *cli.Command, v float64) error {
				if v < 0 {
					return cli.Exit("Error: Minimum read count must be non-negative", 1)
				}
				return nil
			},
		},
		&cli.BoolFlag{
			Name:        "save-file",
			Usage:       "Write the z-score track to <dir>/Z_scores/<base>_zscores.wig",
			Value:       true,
			DefaultText: "true",
		},
	},
	Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cmd.Args().Len() != 1 {
			cli.ShowSubcommandHelp(cmd)
			return nil, cli.Exit("Error: Incorrect number of arguments. Expected 1 argument while "+strconv.Itoa(cmd.Args().Len())+" were given", 1)
		}
		if _, err := os.Stat(infile); os.IsNotExist(err) {
			return nil, cli.Exit("Error: Input file does not exist", 1)
		}
		return ctx, nil
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return RendZScores(infile, int(cmd.Int("gap")), int(cmd.Int("w-sz")), cmd.Float64("min-r"), cmd.Bool("save-file"))
	},
}

// RendZScores loads a raw read track, computes its z-score track and, when
// requested, persists it next to the input under Z_scores/.
func RendZScores(infile string, gap, wSz int, minR float64, saveFile bool) error {
	slog.Info("calculating z scores", "file", infile, "gap", gap, "w_sz", wSz, "min_r", minR)

	reads, chrom, err := utils.LoadWig(infile)
	if err != nil {
		return err
	}

	scores, err := Compute(reads, gap, wSz, minR)
	if err != nil {
		return fmt.Errorf("unable to compute z scores for %s: %w", infile, err)
	}

	if saveFile {
		outfile, err := utils.MakeOutputDir(infile, "Z_scores", "_zscores.wig")
		if err != nil {
			return err
		}
		if err := utils.WriteWig(scores, outfile, chrom); err != nil {
			return err
		}
		slog.Info("wrote z scores", "file", outfile)
	}
	return nil
}
