package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BiAffectBridge/cairn"
	"github.com/BiAffectBridge/cairn/internal/presentation/tui"
	"github.com/BiAffectBridge/cairn/pkg/adapters/file"
	"github.com/BiAffectBridge/cairn/pkg/runner"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <assessment-id>",
	Short: "Run an assessment interactively",
	Long:  `Starts an interactive terminal session for the given assessment. Answers 'back', 'save' and 'exit' navigate; anything else answers the current question.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runInteractive(cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("save-dir", ".cairn/runs", "Directory for saved run results")
	runCmd.Flags().String("resume", "", "Resume a previously saved run by its run id")
	runCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir, _ := cmd.Flags().GetString("dir")
	saveDir, _ := cmd.Flags().GetString("save-dir")
	resume, _ := cmd.Flags().GetString("resume")
	plain, _ := cmd.Flags().GetBool("plain")

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	loader := file.NewLoader(dir)
	engine, err := cairn.New(loader, cairn.WithLogger(logger))
	if err != nil {
		return err
	}

	assessmentID := ""
	if len(args) > 0 {
		assessmentID = args[0]
	} else {
		// With a single assessment in the directory, run it.
		ids, err := engine.List(ctx)
		if err != nil {
			return err
		}
		if len(ids) != 1 {
			return fmt.Errorf("specify an assessment id (found %d in %s)", len(ids), dir)
		}
		assessmentID = ids[0]
	}

	store := file.NewStore(saveDir)
	r := runner.NewRunner()
	r.Store = store
	r.Logger = logger
	if !plain {
		tui.PrintBanner()
		r.Renderer = tui.NewRenderer()
	}

	if resume != "" {
		saved, err := store.Load(ctx, resume)
		if err != nil {
			return fmt.Errorf("failed to load saved run %s: %w", resume, err)
		}
		_, err = r.Resume(ctx, engine, assessmentID, saved)
		return err
	}

	_, err = r.Run(ctx, engine, assessmentID)
	return err
}
