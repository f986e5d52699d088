package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BiAffectBridge/cairn/internal/validator"
	"github.com/BiAffectBridge/cairn/pkg/adapters/file"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file-or-dir]",
	Short: "Check assessment definitions for consistency",
	Long:  `Parses the given assessment file, or every definition in a directory, and reports duplicate identifiers, dangling navigation rules, and bad progress markers.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd.Context(), args); err != nil {
			fmt.Println("Validation failed:")
			errs := validator.ValidationErrors(err)
			if len(errs) == 0 {
				errs = []error{err}
			}
			for _, e := range errs {
				fmt.Printf("  - %v\n", e)
			}
			os.Exit(1)
		}
		fmt.Println("All assessments are valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		_, err := file.LoadFile(path)
		return err
	}

	loader := file.NewLoader(path)
	ids, err := loader.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no assessment definitions found in %s", path)
	}
	for _, id := range ids {
		if _, err := loader.Load(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
