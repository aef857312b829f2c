package main

import (
	"github.com/spf13/cobra"

	"github.com/protoloom/protoloom/pkg/engine"
)

var listImportPaths []string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Compile .proto sources via protoc and list their services",
	Long: `list drives the "parse-proto-files" operation: it compiles one or more
.proto sources (with their imports) via protoc and prints every service and
method the resulting descriptor pool exposes.`,
	Example: `  # List services declared under a proto directory
  protoloom list --import ./protos`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(listImportPaths) == 0 {
			return errMissingImport
		}
		_, roots, err := schemaSource("", listImportPaths)
		if err != nil {
			return err
		}

		e, err := newEngineFromFlags(nil)
		if err != nil {
			return err
		}
		return dispatchRaw(cmd.Context(), e, engine.OpParseProtoFiles, map[string]interface{}{
			"import_paths": roots,
		})
	},
}

func init() {
	listCmd.Flags().StringArrayVar(&listImportPaths, "import", nil, "Import root (directory or .proto file); repeatable")
	rootCmd.AddCommand(listCmd)
}
