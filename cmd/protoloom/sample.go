package main

import (
	"github.com/spf13/cobra"

	"github.com/protoloom/protoloom/pkg/engine"
)

var (
	sampleProtoFile   string
	sampleImportPaths []string
	sampleMessageType string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Synthesize a default JSON body for a message type",
	Long: `sample drives the "sample-for" operation: it compiles the given schema
source and renders a default JSON object for the named message type, one
field per declared field, bounded to a recursion depth of 4.`,
	Example: `  # Sample a request message from an inline proto file
  protoloom sample --proto ./echo.proto --message-type echo.Msg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sampleMessageType == "" {
			return errMissingMessageType
		}
		protoContent, roots, err := schemaSource(sampleProtoFile, sampleImportPaths)
		if err != nil {
			return err
		}
		if protoContent == "" && len(roots) == 0 {
			return errMissingSchema
		}

		e, err := newEngineFromFlags(nil)
		if err != nil {
			return err
		}
		return dispatchRaw(cmd.Context(), e, engine.OpSampleFor, map[string]interface{}{
			"message_type":  sampleMessageType,
			"proto_content": protoContent,
			"import_paths":  roots,
		})
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleProtoFile, "proto", "", "Path to a .proto source file")
	sampleCmd.Flags().StringArrayVar(&sampleImportPaths, "import", nil, "Import root (directory or .proto file); repeatable")
	sampleCmd.Flags().StringVar(&sampleMessageType, "message-type", "", "Fully qualified or simple message type name")
	rootCmd.AddCommand(sampleCmd)
}
