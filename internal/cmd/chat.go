package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oron-mozes/creo-sub001/internal/appdir"
	"github.com/oron-mozes/creo-sub001/internal/chat"
	"github.com/oron-mozes/creo-sub001/internal/config"
	"github.com/oron-mozes/creo-sub001/internal/logging"
	"github.com/oron-mozes/creo-sub001/internal/realtime"
	"github.com/oron-mozes/creo-sub001/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat [session-id]",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the Creo assistant.

With a session id, the stored conversation history is loaded and the
session is resumed; without one, a fresh session is started.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	client := newAPIClient(st)

	if err := client.Health(ctx); err != nil {
		logging.API().Warn("backend health check failed", "server", cfg.ServerURL, "error", err)
	}

	userID := resolveUserID(ctx, client, st)

	sessionID := ""
	resuming := false
	if len(args) > 0 {
		sessionID = args[0]
		resuming = true
	} else {
		sessionID = uuid.NewString()
	}

	transport := realtime.New(cfg.ServerURL,
		realtime.WithLogger(logging.Transport()),
		realtime.WithFallback(client),
	)

	controller := chat.NewController(transport,
		chat.SessionParams{SessionID: sessionID, Token: st.Token(), UserID: userID},
		chat.WithLogger(logging.WithSession(logging.Chat(), sessionID, userID)),
	)
	defer controller.Close()

	if resuming {
		records, err := client.SessionMessages(ctx, sessionID)
		if err != nil {
			logging.API().Warn("could not load session history", "session_id", sessionID, "error", err)
		} else {
			history := make([]chat.Message, 0, len(records))
			for _, r := range records {
				history = append(history, chat.Message{
					Role:      chat.Role(r.Role),
					Content:   r.Content,
					Timestamp: r.Timestamp,
				})
			}
			controller.Hydrate(history)
		}
	}

	// Rejoin the session whenever a connection is (re)established, so a
	// manual reconnect picks up the stream again.
	transport.On(realtime.EventConnected, func(json.RawMessage) {
		if err := transport.JoinSession(sessionID, st.Token(), userID); err != nil {
			logging.Transport().Warn("join session failed", "session_id", sessionID, "error", err)
		}
	})

	if err := transport.Connect(ctx); err != nil {
		logging.Transport().Warn("connect failed; starting offline", "error", err)
	}
	defer transport.Disconnect()

	// Live-reload the log level when the settings file changes.
	if settingsPath, err := appdir.SettingsPath(); err == nil {
		watcher, werr := config.NewSettingsWatcher(settingsPath, func(newCfg *config.Config) {
			_ = logging.Initialize(logging.Config{Level: newCfg.LogLevel})
		}, logging.Get())
		if werr == nil {
			if err := watcher.Start(); err == nil {
				defer watcher.Close()
			}
		}
	}

	model := ui.NewModel(controller, transport, "Creo", logging.UI())
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	unsub := controller.OnUpdate(func() {
		program.Send(ui.RefreshMsg{})
	})
	defer unsub()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run chat UI: %w", err)
	}
	return nil
}
