package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var threadStatus string

func init() {
	threadsCmd.Flags().StringVar(&threadStatus, "status", "", "Only list threads in this state (active, agreement_reached, no_agreement, expired)")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(threadsCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(threadCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health")
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire negotiation threads that have gone quiet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/sweep")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics")
	},
}

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "List the negotiation threads of --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		endpoint := "/api/users/" + url.PathEscape(userID) + "/threads"
		if threadStatus != "" {
			endpoint += "?status=" + url.QueryEscape(threadStatus)
		}
		return performRequest(http.MethodGet, endpoint)
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List the matches of --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return performRequest(http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/matches")
	},
}

var threadCmd = &cobra.Command{
	Use:   "thread [thread-id]",
	Short: "Show a thread with its negotiation history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return performRequest(http.MethodGet, "/api/threads/"+url.PathEscape(args[0]))
	},
}

func requireUser() error {
	if userID == "" {
		return fmt.Errorf("--user is required for this command")
	}
	return nil
}

func performRequest(method, endpoint string) error {
	target := host + endpoint
	fmt.Printf("Making %s request to %s\n", method, target)

	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
