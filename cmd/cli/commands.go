package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(ladderCmd)
	rootCmd.AddCommand(addPlayerCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(metricsCmd)

	matchesCmd.Flags().String("player", "", "Only list matches of this player id")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var ladderCmd = &cobra.Command{
	Use:   "ladder",
	Short: "Show the ladder standings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/players", nil)
	},
}

var addPlayerCmd = &cobra.Command{
	Use:   "add-player NAME [STARTING_RATING]",
	Short: "Add a player to the ladder",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{"name": args[0]}
		if len(args) == 2 {
			r, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid starting rating %q: %w", args[1], err)
			}
			body["starting_rating"] = r
		}
		return performRequest(http.MethodPost, "/players", body)
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List recorded matches, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/matches"
		if player, _ := cmd.Flags().GetString("player"); player != "" {
			endpoint += "?player=" + url.QueryEscape(player)
		}
		return performRequest(http.MethodGet, endpoint, nil)
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit PLAYER_A PLAYER_B SCORE_A SCORE_B",
	Short: "Record a match result",
	Long:  "Record a match result. Players may be given by id or by name.",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := parseSubmission(args)
		if err != nil {
			return err
		}
		return performRequest(http.MethodPost, "/matches", sub)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete MATCH_ID",
	Short: "Delete a match and undo its effect on the ladder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodDelete, "/matches/"+url.PathEscape(args[0]), nil)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit MATCH_ID PLAYER_A PLAYER_B SCORE_A SCORE_B",
	Short: "Replace a match with a corrected result",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := parseSubmission(args[1:])
		if err != nil {
			return err
		}
		return performRequest(http.MethodPut, "/matches/"+url.PathEscape(args[0]), sub)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history PLAYER",
	Short: "Show a player's rating history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/players/"+url.PathEscape(args[0])+"/history", nil)
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check stored ratings and records against the match history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/audit", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

// parseSubmission reads PLAYER_A PLAYER_B SCORE_A SCORE_B.
func parseSubmission(args []string) (map[string]any, error) {
	scoreA, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, fmt.Errorf("invalid score %q: %w", args[2], err)
	}
	scoreB, err := strconv.Atoi(args[3])
	if err != nil {
		return nil, fmt.Errorf("invalid score %q: %w", args[3], err)
	}
	return map[string]any{
		"player_a_id": args[0],
		"player_b_id": args[1],
		"score_a":     scoreA,
		"score_b":     scoreB,
	}, nil
}

func requestURL(endpoint string) string {
	u := host + endpoint
	q := url.Values{}
	if dryRun {
		q.Set("dry_run", "true")
	}
	if verbose {
		q.Set("verbose", "true")
	}
	if len(q) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return u + sep + q.Encode()
}

func performRequest(method, endpoint string, body any) error {
	target := requestURL(endpoint)
	fmt.Printf("Making %s request to %s\n", method, target)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
