package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/protoloom/protoloom/pkg/schema"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the local protoc toolchain and config file",
	Long: `doctor checks that protoc is resolvable (via --protoc-path or PATH) and
reports its version, and validates --config if one was given.`,
	Example: `  protoloom doctor
  protoloom doctor --config protoloom.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("protoloom doctor")
		fmt.Println("================")
		fmt.Println()

		allPassed := true

		cfg, err := loadRuntimeConfig()
		if configPath != "" {
			fmt.Printf("Validating config file %s... ", configPath)
			if err != nil {
				fmt.Printf("FAILED\n  %s\n", err)
				allPassed = false
			} else {
				fmt.Println("valid")
			}
		}
		if err != nil {
			cfg = nil
		}

		protocPathToUse := protocPath
		if protocPathToUse == "" && cfg != nil {
			protocPathToUse = cfg.ProtocPath
		}

		fmt.Print("Checking protoc toolchain... ")
		compiler := schema.NewCompiler(protocPathToUse)
		info, err := compiler.CheckToolchain(cmd.Context())
		if err != nil {
			fmt.Printf("NOT FOUND\n  %s\n", err)
			allPassed = false
		} else {
			fmt.Printf("found (%s)\n  %s\n", info.Path, info.Version)
		}

		fmt.Println()
		if allPassed {
			fmt.Println("All checks passed!")
		} else {
			fmt.Println("Some checks failed. See above for details.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
