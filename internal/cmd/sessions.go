package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oron-mozes/creo-sub001/internal/api"
	"github.com/oron-mozes/creo-sub001/internal/logging"
	"github.com/oron-mozes/creo-sub001/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session-id]",
	Short: "List sessions or show a session's history",
	Long: `Without arguments, lists the user's sessions. With a session id,
prints that session's stored conversation history.

The session list is cached locally, so the last known list is shown when
the backend is unreachable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	client := newAPIClient(st)

	if len(args) == 1 {
		return printHistory(ctx, client, args[0])
	}
	return printSessionList(ctx, client, st)
}

func printSessionList(ctx context.Context, client *api.Client, st *store.Store) error {
	userID := resolveUserID(ctx, client, st)

	sessions, err := client.ListSessions(ctx, userID)
	if err != nil {
		logging.API().Warn("session listing failed; using cached list", "error", err)
		var cached []api.Session
		if !st.GetJSON(store.KeySessionsCache, &cached) {
			return fmt.Errorf("list sessions: %w", err)
		}
		sessions = cached
		fmt.Println("(offline: showing cached sessions)")
	} else {
		st.SetJSON(store.KeySessionsCache, sessions)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions yet. Start one with: creo chat")
		return nil
	}

	for _, s := range sessions {
		when := time.UnixMilli(s.Timestamp).Format("2006-01-02 15:04")
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s  %s\n", s.ID, when, title)
	}
	return nil
}

func printHistory(ctx context.Context, client *api.Client, sessionID string) error {
	records, err := client.SessionMessages(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("(empty session)")
		return nil
	}
	for _, r := range records {
		when := time.UnixMilli(r.Timestamp).Format("15:04")
		fmt.Printf("[%s] %s: %s\n", when, r.Role, r.Content)
	}
	return nil
}
