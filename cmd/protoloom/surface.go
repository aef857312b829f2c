package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/protoloom/protoloom/pkg/engine"
)

var surfaceProtoFile string

var surfaceCmd = &cobra.Command{
	Use:   "surface",
	Short: "Extract services from a .proto source without invoking protoc",
	Long: `surface drives the "parse-proto-surface" operation: a fast, regex-based
scan of one .proto source's text for its services and methods, without
resolving imports or requiring protoc on PATH.`,
	Example: `  # Surface-scan a single file
  protoloom surface --proto ./echo.proto`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if surfaceProtoFile == "" {
			return errMissingSchema
		}
		content, err := os.ReadFile(surfaceProtoFile)
		if err != nil {
			return err
		}

		e, err := newEngineFromFlags(nil)
		if err != nil {
			return err
		}
		return dispatchRaw(cmd.Context(), e, engine.OpParseProtoSurface, map[string]interface{}{
			"proto_content": string(content),
		})
	},
}

func init() {
	surfaceCmd.Flags().StringVar(&surfaceProtoFile, "proto", "", "Path to a .proto source file")
	rootCmd.AddCommand(surfaceCmd)
}
