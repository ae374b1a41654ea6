package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Fetch suggested prompts",
	Long:  `Fetch suggested conversation starters from the backend.`,
	Args:  cobra.NoArgs,
	RunE:  runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	client := newAPIClient(st)
	userID := resolveUserID(ctx, client, st)

	resp, err := client.Suggestions(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch suggestions: %w", err)
	}
	if len(resp.Suggestions) == 0 {
		fmt.Println("No suggestions right now.")
		return nil
	}
	for _, s := range resp.Suggestions {
		fmt.Printf("  • %s\n", s)
	}
	return nil
}
