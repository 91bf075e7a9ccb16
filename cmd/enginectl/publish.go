package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vaultscript/core"
)

func newPublishCmd() *cobra.Command {
	var wasmPath string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "publish validated wasm bytecode as a package",
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := os.ReadFile(wasmPath)
			if err != nil {
				return fmt.Errorf("read wasm file: %w", err)
			}

			process, _, _, err := bootstrap("publish")
			if err != nil {
				return err
			}

			// A real publish flow extracts the blueprint ABI table from the
			// package's embedded metadata section; until that parser is
			// wired the CLI accepts a single "Main" blueprint with no
			// declared functions, useful for smoke-testing the publish
			// path itself.
			blueprints := map[string]*core.Blueprint{
				"Main": {Name: "Main", Functions: map[string]core.Abi{}, Methods: map[string]core.Abi{}},
			}
			addr := process.PublishPackage(code, blueprints)
			fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", addr.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&wasmPath, "wasm", "", "path to validated wasm bytecode")
	cmd.MarkFlagRequired("wasm")
	return cmd
}
