package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thajpo/ceo-dashboard/internal/api"
	"github.com/thajpo/ceo-dashboard/internal/config"
	"github.com/thajpo/ceo-dashboard/internal/diff"
	"github.com/thajpo/ceo-dashboard/internal/inbox"
	"github.com/thajpo/ceo-dashboard/internal/router"
)

// getLocal fetches path from a running `ceo run` and decodes the JSON body.
func getLocal(path string, out any) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	base := cfg.API.Listen
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(strings.TrimRight(base, "/") + path)
	if err != nil {
		return fmt.Errorf("is `ceo run` running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Detail != "" {
			return fmt.Errorf("%s (%d)", apiErr.Detail, resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show router status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var st struct {
				router.Status
				Connected bool `json:"connected"`
			}
			if err := getLocal("/api/status", &st); err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(st)
			}

			fmt.Printf("CEO Status\n")
			fmt.Printf("==========\n")
			fmt.Printf("Version:           %s\n", Version)
			fmt.Printf("Runtime Connected: %v\n", st.Connected)
			fmt.Printf("Sessions:          %d\n", st.Sessions)
			fmt.Printf("  Working:         %d\n", st.Working)
			fmt.Printf("  Needs Attention: %d\n", st.NeedsAttention)
			fmt.Printf("Inbox Items:       %d\n", st.InboxItems)
			fmt.Printf("Pending Approvals: %d\n", st.PendingApprovals)
			fmt.Printf("Autonomy Granted:  %v\n", st.AutonomyGranted)
			if len(st.HighUsage) > 0 {
				fmt.Printf("High Usage:        %s\n", strings.Join(st.HighUsage, ", "))
			}
			return nil
		},
	}
}

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List tracked sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Sessions []router.View `json:"sessions"`
			}
			if err := getLocal("/api/sessions", &resp); err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(map[string]any{
					"sessions":    resp.Sessions,
					"total_count": len(resp.Sessions),
				})
			}
			if len(resp.Sessions) == 0 {
				fmt.Println("No sessions found")
				return nil
			}

			fmt.Printf("Sessions (%d total)\n", len(resp.Sessions))
			fmt.Println(strings.Repeat("=", 60))
			for _, s := range resp.Sessions {
				marker := ""
				if s.Provisional {
					marker = " [STARTING]"
				}
				fmt.Printf("\n%s%s\n", s.ID, marker)
				fmt.Printf("  Project: %s\n", s.Project)
				fmt.Printf("  Status:  %s\n", s.Status)
				fmt.Printf("  Mode:    %s\n", s.Mode)
				if s.Pending != "" {
					fmt.Printf("  Waiting: %s\n", s.Pending)
				}
				usageNote := ""
				if s.HighUsage {
					usageNote = " (high)"
				}
				fmt.Printf("  Tokens:  %d%s\n", s.Usage.Total(), usageNote)
			}
			return nil
		},
	}
}

func newInboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "List inbox items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Items []inbox.Item `json:"items"`
			}
			if err := getLocal("/api/inbox", &resp); err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(resp)
			}
			if len(resp.Items) == 0 {
				fmt.Println("Inbox is empty")
				return nil
			}
			for _, item := range resp.Items {
				fmt.Printf("[%s] %s %s (%s)\n", item.Type, item.CreatedAt.Format(time.Kitchen), item.Project, item.SessionID)
				fmt.Printf("    %s\n", item.Content)
			}
			return nil
		},
	}
}

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [session-id]",
		Short: "Show the working-tree diff of a session",
		Args:  cobra.ExactArgs(1),
	}
	file := cmd.Flags().String("file", "", "Show the lines of one changed file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id := url.PathEscape(args[0])

		if *file != "" {
			// the daemon serves file lines from the last loaded diff
			if err := getLocal("/api/sessions/"+id+"/diff", &struct{}{}); err != nil {
				return err
			}
			var f diff.File
			if err := getLocal("/api/sessions/"+id+"/diff/file?path="+url.QueryEscape(*file), &f); err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(f)
			}
			fmt.Printf("%s (+%d -%d)\n", f.Path, f.Added, f.Removed)
			for _, l := range f.Lines {
				fmt.Println(l.Text)
			}
			return nil
		}

		var resp struct {
			Stat   string         `json:"stat"`
			Status string         `json:"status"`
			Files  []diff.Summary `json:"files"`
		}
		if err := getLocal("/api/sessions/"+id+"/diff", &resp); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(resp)
		}
		if len(resp.Files) == 0 {
			fmt.Println("No changes")
			return nil
		}
		for _, f := range resp.Files {
			fmt.Printf("%-50s +%-5d -%d\n", f.Path, f.Added, f.Removed)
		}
		if resp.Stat != "" {
			fmt.Printf("\n%s\n", strings.TrimSpace(resp.Stat))
		}
		return nil
	}
	return cmd
}
