package peaks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/rendseq/rendgo/utils"
)

// Caller segments a z-score track into peak calls. The two implementations
// are independent strategies over the same input; they share no state.
type Caller interface {
	Call(scores utils.Series) (utils.Series, error)
}

// ThreshCaller labels positions by a static score cutoff.
type ThreshCaller struct {
	Thresh float64
}

func (c ThreshCaller) Call(scores utils.Series) (utils.Series, error) {
	return ThreshPeaks(scores, c.Thresh), nil
}

// HmmCaller labels positions by decoding a two-state HMM.
type HmmCaller struct {
	IToP       float64
	PToP       float64
	PeakCenter float64
	Spread     float64
}

func (c HmmCaller) Call(scores utils.Series) (utils.Series, error) {
	return HmmPeaks(scores, c.IToP, c.PToP, c.PeakCenter, c.Spread)
}

var (
	infile string // Input wig file with z-scores
	method string // Peak calling method: thresh or hmm
)

var PeaksCmd = &cli.Command{
	Name:      "peaks",
	Usage:     "Segment a z-score track into peak and background calls",
	UsageText: "rendgo peaks [options] <input.wig> <thresh|hmm>",
	ArgsUsage: "<input.wig> <thresh|hmm>",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:        "input.wig",
			UsageText:   "Input wig file containing z-scores for a single chromosome.",
			Destination: &infile,
		},
		&cli.StringArg{
			Name:        "method",
			UsageText:   "Peak calling method, either thresh or hmm.",
			Destination: &method,
		},
	},
	Flags: []cli.Flag{
		&cli.Float64Flag{
			Name:        "thresh",
			Usage:       "Score cutoff for the thresh method. Selected automatically when absent.",
			DefaultText: "Automatically selected",
		},
		&cli.StringFlag{
			Name:        "thresh-method",
			Usage:       "Automatic threshold selection method: expected_val or kink",
			Value:       "expected_val",
			DefaultText: "expected_val",
			Action: func(ctx context.Context, cmd *cli.Command, v string) error {
				if v != "expected_val" && v != "kink" {
					return cli.Exit("Error, unknown threshold selection method: "+v+". Options are: expected_val, kink", 1)
				}
				return nil
			},
		},
		&cli.StringFlag{
			Name:        "kink-plot",
			Usage:       "Path of the observed-vs-expected diagnostic plot written by the kink method",
			DefaultText: "kink.png next to the input",
		},
		&cli.Float64Flag{
			Name:        "i-to-p",
			Usage:       "Probability of a background-to-peak transition",
			Value:       1.0 / 2000,
			DefaultText: "1/2000",
			Action: func(ctx context.Context, cmd *cli.Command, v float64) error {
				if v < 0 || v > 1 {
					return cli.Exit("Error: Transition probabilities must be between 0 and 1", 1)
				}
				return nil
			},
		},
		&cli.Float64Flag{
			Name:        "p-to-p",
			Usage:       "Probability of a peak-to-peak transition",
			Value:       1.0 / 1.5,
			DefaultText: "1/1.5",
			Action: func(ctx context.Context, cmd *cli.Command, v float64) error {
				if v < 0 || v > 1 {
					return cli.Exit("Error: Transition probabilities must be between 0 and 1", 1)
				}
				return nil
			},
		},
		&cli.Float64Flag{
			Name:        "peak-center",
			Usage:       "Mean of the peak state's emission distribution",
			Value:       12,
			DefaultText: "12",
		},
		&cli.Float64Flag{
			Name:        "spread",
			Usage:       "Standard deviation of the peak state's emission distribution",
			Value:       2,
			DefaultText: "2",
			Action: func(ctx context.Context, cmd *cli.Command, v float64) error {
				if v <= 0 {
					return cli.Exit("Error: Spread must be positive", 1)
				}
				return nil
			},
		},
		&cli.BoolFlag{
			Name:        "save-file",
			Usage:       "Write the peak track to <dir>/Peaks/<base>_peaks.wig",
			Value:       true,
			DefaultText: "true",
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
		if method != "thresh" && method != "hmm" {
			return nil, cli.Exit("Error: "+method+" is not a valid peak finding method. Options are: thresh, hmm", 1)
		}
		return ctx, nil
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		thresh, threshSet := cmd.Float64("thresh"), cmd.IsSet("thresh")
		return RendPeaks(infile, method, Options{
			Thresh:       thresh,
			ThreshSet:    threshSet,
			SelectMethod: cmd.String("thresh-method"),
			KinkPlot:     cmd.String("kink-plot"),
			IToP:         cmd.Float64("i-to-p"),
			PToP:         cmd.Float64("p-to-p"),
			PeakCenter:   cmd.Float64("peak-center"),
			Spread:       cmd.Float64("spread"),
			SaveFile:     cmd.Bool("save-file"),
		})
	},
}

// Options collects the per-strategy parameters of the peaks command.
type Options struct {
	Thresh       float64
	ThreshSet    bool
	SelectMethod string
	KinkPlot     string
	IToP         float64
	PToP         float64
	PeakCenter   float64
	Spread       float64
	SaveFile     bool
}

// RendPeaks loads a z-score track, calls peaks with the chosen strategy
// and, when requested, persists the calls next to the input under Peaks/.
func RendPeaks(infile string, method string, opts Options) error {
	slog.Info("finding peaks", "file", infile, "method", method)

	scores, chrom, err := utils.LoadWig(infile)
	if err != nil {
		return err
	}

	var caller Caller
	switch method {
	case "thresh":
		thresh := opts.Thresh
		if !opts.ThreshSet {
			kinkPlot := opts.KinkPlot
			if kinkPlot == "" {
				kinkPlot = filepath.Join(filepath.Dir(infile), "kink.png")
			}
			thresh, err = CalcThresh(scores, opts.SelectMethod, kinkPlot)
			if err != nil {
				return fmt.Errorf("unable to select a threshold for %s: %w", infile, err)
			}
			slog.Info("selected threshold", "method", opts.SelectMethod, "thresh", thresh)
		}
		caller = ThreshCaller{Thresh: thresh}
	case "hmm":
		caller = HmmCaller{
			IToP:       opts.IToP,
			PToP:       opts.PToP,
			PeakCenter: opts.PeakCenter,
			Spread:     opts.Spread,
		}
	default:
		return fmt.Errorf("%s is not a valid peak finding method, see --help", method)
	}

	calls, err := caller.Call(scores)
	if err != nil {
		return fmt.Errorf("unable to call peaks for %s: %w", infile, err)
	}

	if opts.SaveFile {
		outfile, err := utils.MakeOutputDir(infile, "Peaks", "_peaks.wig")
		if err != nil {
			return err
		}
		if err := utils.WriteWig(calls, outfile, chrom); err != nil {
			return err
		}
		slog.Info("wrote peaks", "file", outfile)
	}
	return nil
}
