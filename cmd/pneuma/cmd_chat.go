package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Reads messages from stdin, one per line, and prints each reply.

Type /state to see the personality vector, /quit to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}
}

func newSayCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "say <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSay(cmd, opts, strings.Join(args, " "), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the reply as JSON")
	return cmd
}

func runSay(cmd *cobra.Command, opts *options, message string, asJSON bool) error {
	rt, err := openRuntime(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	reply, err := rt.engine.Respond(cmd.Context(), opts.session, message)
	if err != nil {
		return fmt.Errorf("failed to respond: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}
	fmt.Fprintln(out, reply.Reply)
	return nil
}

func runChat(cmd *cobra.Command, opts *options) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	rt, err := openRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	label := rt.engine.Persona().Label
	fmt.Fprintf(out, "%s is listening (session %s). /quit to leave.\n", label, opts.session)

	lines := readLines(ctx, cmd.InOrStdin())
	for {
		fmt.Fprint(out, "you> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/state":
			snapshot, err := rt.engine.Snapshot(ctx, opts.session)
			if err != nil {
				return err
			}
			if err := printJSON(out, snapshot.State); err != nil {
				return err
			}
			fmt.Fprintf(out, "awareness: %s  drift: %s\n", snapshot.Awareness, orNone(snapshot.Drift))
			continue
		}

		reply, err := rt.engine.Respond(ctx, opts.session, line)
		if err != nil {
			if errors.Is(err, ctx.Err()) {
				return nil
			}
			return fmt.Errorf("failed to respond: %w", err)
		}
		fmt.Fprintf(out, "%s> %s\n\n", label, strings.ReplaceAll(reply.Reply, "\n", "\n    "))
	}
}

// readLines feeds lines from r to a channel so the loop can also watch the context.
// The channel is closed at EOF or once ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
