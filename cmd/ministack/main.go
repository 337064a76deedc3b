package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ministack/ministack/pkg/builder"
	"github.com/ministack/ministack/pkg/utils"
)

var (
	verbose bool
	version bool
)

const logoAscii = `            o         |              |
 |/|/\ | |/\ | /\// \/|/ /\ /\ // \ \|/
 |   | |     |          |`

var rootCmd = &cobra.Command{
	Use:   "ministack",
	Short: "ministack command line tool\n\n" + color.HiBlueString(logoAscii),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.SetVerbose(verbose)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			fmt.Println(builder.BuildInfo())
			os.Exit(0)
		}
		cmd.Help()
	},
}

func main() {
	cobra.EnableTraverseRunHooks = true
	rootCmd.AddCommand(&dumpCmd, &craftCmd, &statsCmd)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().BoolVarP(&version, "version", "V", false, "Print version")
	rootCmd.Execute()
}
