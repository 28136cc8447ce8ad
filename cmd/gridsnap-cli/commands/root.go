// Package commands implements the gridsnap CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "gridsnap",
	Short: "Extract tables from screenshots via a vision-language model",
	Long: `gridsnap sends a screenshot of a table to an external vision-language
service and prints the extracted rows and columns as CSV or JSON.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
