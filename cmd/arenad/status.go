package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/groblegark/arena/internal/client"
	"github.com/groblegark/arena/internal/ui"
)

var (
	httpURL   string
	authToken string
)

func defaultHTTPURL() string {
	if s := os.Getenv("ARENA_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

func adminClient() *client.HTTPClient {
	token := authToken
	if token == "" {
		token = os.Getenv("ARENA_AUTH_TOKEN")
	}
	return client.NewHTTPClient(httpURL, token)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running session's state",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := adminClient().Session()
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", ui.RenderAccent(st.Name), st.CodeName)
		fmt.Printf("  status:     %s\n", ui.RenderStatus(st.Status))
		if st.StartedAt != nil {
			fmt.Printf("  started:    %s\n", st.StartedAt.Local().Format(time.RFC3339))
		}
		fmt.Printf("  connected:  %d\n", st.Connected)
		fmt.Printf("  spectators: %d\n", st.Spectators)
		if len(st.Winners) > 0 {
			fmt.Printf("  winners:    %d\n", len(st.Winners))
		}
		if st.VoiceChannel >= 0 {
			fmt.Printf("  voice:      channel %d\n", st.VoiceChannel)
		} else {
			fmt.Printf("  voice:      %s\n", ui.RenderMuted("not acquired"))
		}

		players, err := adminClient().Players()
		if err != nil {
			return err
		}
		for _, p := range players {
			presence := "online"
			if !p.Online {
				presence = ui.RenderMuted("offline")
			}
			fmt.Printf("  %s  %-9s %s\n", p.ID, p.Role, presence)
		}
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the game",
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminClient().StartSession()
	},
}

var endCmd = &cobra.Command{
	Use:   "end",
	Short: "End the game and run the end-of-game sequence",
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminClient().EndSession()
	},
}

var winCmd = &cobra.Command{
	Use:   "win <player-id>",
	Short: "Record a winner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid player id %q", args[0])
		}
		return adminClient().RecordWinner(id)
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, startCmd, endCmd, winCmd} {
		c.Flags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "session server URL")
		c.Flags().StringVar(&authToken, "token", "", "bearer token for the admin API")
	}
}
