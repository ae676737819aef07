// File: cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "unixfs",
	Short: "Unix-style file system inside a block-device image",
	Long: `unixfs drives a Unix-style file system stored inside a fixed-size
block-device image: hierarchical directories, regular files, hard links and
symbolic links over a flat block address space.

Commands:
  mkfs     Format a fresh file-system image
  shell    Interactive shell over an image`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch {
		case quiet:
			logrus.SetLevel(logrus.ErrorLevel)
		case verbose:
			logrus.SetLevel(logrus.DebugLevel)
		default:
			logrus.SetLevel(logrus.InfoLevel)
		}
	},
	Version: "0.1.0-dev",
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")

	rootCmd.AddCommand(
		mkfsCmd,
		shellCmd,
	)
}
