package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"vaultscript/core"
)

func parsePackageAddress(s string) (core.PackageAddress, error) {
	var a core.PackageAddress
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(a) {
		return a, fmt.Errorf("invalid package address %q", s)
	}
	copy(a[:], b)
	return a, nil
}

func parseComponentAddress(s string) (core.ComponentAddress, error) {
	var a core.ComponentAddress
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(a) {
		return a, fmt.Errorf("invalid component address %q", s)
	}
	copy(a[:], b)
	return a, nil
}

func newCallFunctionCmd() *cobra.Command {
	var pkgHex, blueprint, function, argsHex string
	cmd := &cobra.Command{
		Use:   "call-function",
		Short: "invoke a blueprint function with no existing component instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pkgAddr, err := parsePackageAddress(pkgHex)
			if err != nil {
				return err
			}
			argBytes, err := hex.DecodeString(argsHex)
			if err != nil {
				return fmt.Errorf("invalid hex args: %w", err)
			}

			process, track, _, err := bootstrap("call-function")
			if err != nil {
				return err
			}

			result, _, err := process.CallFunction(pkgAddr, blueprint, function, core.ScryptoValue{Bytes: argBytes})
			if err != nil {
				track.Abort()
				return err
			}
			if err := track.Commit(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "result: %x\n", result.Bytes)
			return nil
		},
	}
	cmd.Flags().StringVar(&pkgHex, "package", "", "hex package address")
	cmd.Flags().StringVar(&blueprint, "blueprint", "", "blueprint name")
	cmd.Flags().StringVar(&function, "function", "", "function name")
	cmd.Flags().StringVar(&argsHex, "args", "", "hex-encoded ScryptoValue arguments")
	cmd.MarkFlagRequired("package")
	cmd.MarkFlagRequired("blueprint")
	cmd.MarkFlagRequired("function")
	return cmd
}

func newCallMethodCmd() *cobra.Command {
	var compHex, method, argsHex string
	cmd := &cobra.Command{
		Use:   "call-method",
		Short: "invoke a method against an existing component",
		RunE: func(cmd *cobra.Command, _ []string) error {
			compAddr, err := parseComponentAddress(compHex)
			if err != nil {
				return err
			}
			argBytes, err := hex.DecodeString(argsHex)
			if err != nil {
				return fmt.Errorf("invalid hex args: %w", err)
			}

			process, track, _, err := bootstrap("call-method")
			if err != nil {
				return err
			}

			result, _, err := process.CallMethod(compAddr, method, core.ScryptoValue{Bytes: argBytes})
			if err != nil {
				track.Abort()
				return err
			}
			if err := track.Commit(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "result: %x\n", result.Bytes)
			return nil
		},
	}
	cmd.Flags().StringVar(&compHex, "component", "", "hex component address")
	cmd.Flags().StringVar(&method, "method", "", "method name")
	cmd.Flags().StringVar(&argsHex, "args", "", "hex-encoded ScryptoValue arguments")
	cmd.MarkFlagRequired("component")
	cmd.MarkFlagRequired("method")
	return cmd
}
