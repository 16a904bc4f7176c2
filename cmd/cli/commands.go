package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	showAll    bool
	query      string
	gender     string
	tournament string
	notify     bool
	dryRun     bool
)

func init() {
	tournamentsCmd.Flags().BoolVar(&showAll, "all", false, "Include inactive tournaments")
	tournamentsCmd.Flags().StringVarP(&query, "query", "q", "", "Search name, description and venue")
	eligibilityCmd.Flags().StringVar(&gender, "gender", "MALE", "MALE or FEMALE")
	eligibilityCmd.Flags().StringVar(&tournament, "tournament", "", "Only list events offered by this tournament")
	statsCmd.Flags().BoolVar(&notify, "notify", false, "Post the stats to Slack")
	statsCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the Slack message instead of sending it")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(tournamentsCmd)
	rootCmd.AddCommand(tournamentCmd)
	rootCmd.AddCommand(eligibilityCmd)
	rootCmd.AddCommand(registrationsCmd)
	rootCmd.AddCommand(partnersCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health")
	},
}

var tournamentsCmd = &cobra.Command{
	Use:   "tournaments",
	Short: "List or search tournaments",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if showAll {
			params.Set("all", "true")
		}
		if query != "" {
			params.Set("q", query)
		}
		return performRequest(http.MethodGet, withQuery("/tournaments", params))
	},
}

var tournamentCmd = &cobra.Command{
	Use:   "tournament [id]",
	Short: "Show a single tournament",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/tournaments/"+url.PathEscape(args[0]))
	},
}

var eligibilityCmd = &cobra.Command{
	Use:   "eligibility [date-of-birth]",
	Short: "Show the categories a player born on YYYY-MM-DD can enter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		params.Set("date_of_birth", args[0])
		params.Set("gender", gender)
		if tournament != "" {
			params.Set("tournament_id", tournament)
		}
		return performRequest(http.MethodGet, withQuery("/eligibility", params))
	},
}

var registrationsCmd = &cobra.Command{
	Use:   "registrations",
	Short: "List the registrations of the --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID == "" {
			return fmt.Errorf("--user is required")
		}
		return performRequest(http.MethodGet, "/registrations")
	},
}

var partnersCmd = &cobra.Command{
	Use:   "partners",
	Short: "List the doubles partners the --user entered before",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID == "" {
			return fmt.Errorf("--user is required")
		}
		return performRequest(http.MethodGet, "/partners")
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [tournament-id]",
	Short: "Show registration stats for a tournament",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if notify {
			params.Set("notify", "true")
		}
		if dryRun {
			params.Set("dry_run", "true")
		}
		return performRequest(http.MethodGet, withQuery("/admin/tournaments/"+url.PathEscape(args[0])+"/stats", params))
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [registration-id]",
	Short: "Cancel a registration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/admin/registrations/"+url.PathEscape(args[0])+"/cancel")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics")
	},
}

func withQuery(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

func performRequest(method, endpoint string) error {
	target := host + endpoint
	fmt.Printf("Making request to %s\n", target)

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
