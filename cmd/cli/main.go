package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host   string
	userID string
)

var rootCmd = &cobra.Command{
	Use:   "skillswap-cli",
	Short: "A CLI to interact with the skillswap server",
	Long: `A command-line interface for making requests to the various endpoints
of the skillswap negotiation service.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "The user to act as (sent as X-User-ID)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
