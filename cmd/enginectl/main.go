// Command enginectl is a thin operator CLI around the engine core: publish
// packages, call functions/methods directly, or run a JSON transaction
// manifest end to end.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "enginectl",
		Short:             "operate the vaultscript execution engine",
		PersistentPreRunE: initMiddleware,
	}
	cmd.PersistentFlags().String("log-level", "info", "trace|debug|info|warn|error")
	cmd.PersistentFlags().String("db-path", "./vaultscript.db", "substate store path")

	cmd.AddCommand(
		newPublishCmd(),
		newCallFunctionCmd(),
		newCallMethodCmd(),
		newRunManifestCmd(),
		newServeCmd(),
	)
	return cmd
}

func initMiddleware(cmd *cobra.Command, _ []string) error {
	lvlStr, _ := cmd.Flags().GetString("log-level")
	lvl, err := logrus.ParseLevel(lvlStr)
	if err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	logrus.SetLevel(lvl)
	return nil
}
