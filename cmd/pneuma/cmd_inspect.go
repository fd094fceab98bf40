package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/easeaico/project-pneuma/internal/voice"
)

func newStateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the personality vector of a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			snapshot, err := rt.engine.Snapshot(cmd.Context(), opts.session)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"sessionId": snapshot.SessionID,
				"state":     snapshot.State,
				"drift":     orNone(snapshot.Drift),
			})
		},
	}
}

func newMemoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "memory",
		Short: "Show short-term memory and long-term insights of a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			snapshot, err := rt.engine.Snapshot(cmd.Context(), opts.session)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snapshot.Memory)
		},
	}
}

func newConversationsCmd(opts *options) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List the conversations of a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			snapshot, err := rt.engine.Snapshot(cmd.Context(), opts.session)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if full {
				return printJSON(out, snapshot.Conversations)
			}
			if len(snapshot.Conversations.Conversations) == 0 {
				fmt.Fprintln(out, "No conversations yet.")
				return nil
			}
			for _, conv := range snapshot.Conversations.Conversations {
				started := time.UnixMilli(conv.StartedAt).Format(time.RFC3339)
				fmt.Fprintf(out, "%s  %s  %d exchange(s)\n", conv.ID, started, len(conv.Exchanges))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print every exchange as JSON")
	return cmd
}

func newPersonasCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the builtin personas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := opts.persona
			if selected == "" {
				selected = loadConfig().PersonaName
			}
			out := cmd.OutOrStdout()
			for _, name := range voice.BuiltinPersonas() {
				persona, err := voice.LoadPersona(name)
				if err != nil {
					return err
				}
				marker := " "
				if name == selected {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-10s %s (%s)\n", marker, persona.Name, persona.Label, strings.Join(persona.ModeNames(), ", "))
			}
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
