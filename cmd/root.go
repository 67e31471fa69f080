package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/aKV/cmd/kv"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "akv",
		Short: "append-only key-value store",
		Long: fmt.Sprintf(`aKV (v%s)

An append-only key-value store library written in Go. Values are
buffered in memory, written to a log file by background workers
and located through an index that is snapshotted to disk.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of aKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("aKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()

	// a failed command skips the post run hook, the store is closed here
	if closeErr := kv.CloseStore(); closeErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", closeErr)
		err = closeErr
	}
	if err != nil {
		os.Exit(1)
	}
}
