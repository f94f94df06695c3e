/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jjudge-oj/authsvc/config"
	"github.com/jjudge-oj/authsvc/internal/mq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// eventsCmd groups account event commands.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Work with account lifecycle events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log account events from the configured broker until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		backend, err := mq.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open events backend: %w", err)
		}
		if backend == nil {
			return errors.New("EVENTS_BACKEND is none; nothing to watch")
		}

		events := mq.New(backend, cfg.EventsChannel)
		defer events.Close()

		log.Info().Str("channel", events.Channel()).Msg("Watching account events")
		err = events.SubscribeEvents(cmd.Context(), func(ctx context.Context, event mq.Event) error {
			log.Info().
				Str("type", event.Type).
				Int64("user_id", event.UserID).
				Time("occurred_at", event.OccurredAt).
				Msg("Account event")
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)
}
