package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/scenejoin/internal/config"
	"github.com/Faultbox/scenejoin/internal/logger"
	"github.com/Faultbox/scenejoin/internal/pipeline"
)

func newRootCommand() *cobra.Command {
	var flags *config.Flags

	rootCmd := &cobra.Command{
		Use:   "scenejoin -m model.scn -a anim.scn -o out.scn",
		Short: "Join animated scene archives with their rest-pose models",
		Long: `scenejoin pairs every animated leaf with the model leaf at the same
namespace-stripped path, carries rest positions, normals, uvs and
attributes onto it and writes one output archive.

Without models, a single animation archive is copied straight to the
output with normal compaction applied.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags)
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer logger.Sync()
			logger.Sugar.Debugf("config: %+v", cfg)

			res, err := pipeline.Run(cmd.Context(), cfg, logger.Log)
			var verr *pipeline.ValidationError
			if errors.As(err, &verr) {
				printMessages(cmd.ErrOrStderr(), "Validation failed", verr.Messages)
				return fmt.Errorf("%d validation messages, rerun with --no-block-check to write anyway", len(verr.Messages))
			}
			if err != nil {
				logger.Error("join failed", zap.Error(err))
				return err
			}
			if len(res.Warnings) > 0 {
				printMessages(cmd.ErrOrStderr(), "Validation warnings", res.Warnings)
			}
			return nil
		},
	}

	flags = config.BindFlags(rootCmd.Flags())
	rootCmd.AddCommand(newConfigCommand())
	return rootCmd
}

// printMessages renders validation messages as a table on a terminal and
// as plain lines otherwise.
func printMessages(out io.Writer, title string, msgs []string) {
	if !isTerminal(out) {
		for _, m := range msgs {
			fmt.Fprintln(out, m)
		}
		return
	}
	rows := make([][]string, len(msgs))
	for i, m := range msgs {
		rows[i] = []string{strconv.Itoa(i + 1), m}
	}
	fmt.Fprintln(out, title+":")
	fmt.Fprintln(out, renderTable([]string{"#", "Message"}, rows, []columnAlignment{alignRight, alignLeft}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
