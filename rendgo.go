package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rendseq/rendgo/convert"
	"github.com/rendseq/rendgo/docs"
	"github.com/rendseq/rendgo/peaks"
	"github.com/rendseq/rendgo/zscores"
)

func main() {
	cmd := &cli.Command{
		Name:      "rendgo",
		Version:   "1.0.0",
		Usage:     "peak calling for end-enriched RNA sequencing data",
		UsageText: "rendgo [global options] command [command options] [arguments...]",
		Commands: []*cli.Command{
			convert.ConvertCmd,
			zscores.ZScoresCmd,
			peaks.PeaksCmd,
			docs.BuildCmd,
		},
		EnableShellCompletion: true,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cli.ShowAppHelp(cmd)
			return nil
		},
	}

	cmd.Run(context.Background(), os.Args)
}
