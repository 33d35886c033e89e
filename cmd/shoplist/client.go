package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukerupert/shoplist/internal/parser"
	"github.com/dukerupert/shoplist/internal/syncclient"
)

type clientSession struct {
	api   *syncclient.HTTPClient
	store *syncclient.LocalStore
	agent *syncclient.Agent
}

func (s *clientSession) Close() error {
	return s.store.Close()
}

func openClient(opts *rootOptions) (*clientSession, error) {
	cc := opts.cfg.Client
	if cc.Token == "" {
		return nil, errors.New("client.token is not set")
	}
	if cc.ListID == 0 {
		return nil, errors.New("client.list_id is not set")
	}

	local, err := syncclient.OpenLocalStore(cc.CachePath)
	if err != nil {
		return nil, err
	}
	api := syncclient.NewHTTPClient(cc.Endpoint, cc.Token, nil)
	agent, err := syncclient.NewAgent(api, local, cc.ListID, opts.logger)
	if err != nil {
		local.Close()
		return nil, err
	}
	return &clientSession{api: api, store: local, agent: agent}, nil
}

// syncOrWarn syncs with the server. Connectivity problems leave the cached state in place.
func (s *clientSession) syncOrWarn(ctx context.Context, out io.Writer) error {
	err := s.agent.Sync(ctx)
	if errors.Is(err, syncclient.ErrTransient) {
		fmt.Fprintln(out, "server unreachable, showing local state")
		return nil
	}
	return err
}

func newClientCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Work with a list from this machine, online or offline",
	}
	cmd.AddCommand(newClientShowCommand(opts))
	cmd.AddCommand(newClientAddCommand(opts))
	cmd.AddCommand(newClientCheckCommand(opts))
	cmd.AddCommand(newClientSyncCommand(opts))
	return cmd
}

func newClientShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openClient(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.syncOrWarn(cmd.Context(), cmd.ErrOrStderr()); err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), s.agent)
			return nil
		},
	}
}

func newClientAddCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <item>...",
		Short: "Add items, e.g. \"2 l milk\" \"eggs\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openClient(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, arg := range args {
				in, ok := parser.ParseLine(arg)
				if !ok {
					return fmt.Errorf("could not read item %q", arg)
				}
				err := s.agent.Do(cmd.Context(), syncclient.Operation{Kind: syncclient.OpCreate, Item: &in})
				if err != nil {
					return err
				}
			}
			printList(cmd.OutOrStdout(), s.agent)
			return nil
		},
	}
}

func newClientCheckCommand(opts *rootOptions) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "check <item-id>",
		Short: "Check an item off, or back on with --undo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openClient(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			op := syncclient.Operation{Kind: syncclient.OpToggle, ItemID: args[0], Active: undo}
			if err := s.agent.Do(cmd.Context(), op); err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), s.agent)
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the item as still needed")
	return cmd
}

func newClientSyncCommand(opts *rootOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Send queued changes and fetch the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openClient(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if err := s.agent.Sync(ctx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "synced, %d pending, %d dropped\n", s.agent.Pending(), s.agent.Unsynced())
			if !watch {
				return nil
			}

			userID, err := s.api.Me(ctx)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stream, err := syncclient.DialStream(ctx, s.api.BaseURL(), s.api.Token(),
				[]byte(opts.cfg.Client.StreamSecret), userID, s.agent, opts.logger)
			if err != nil {
				return err
			}
			err = stream.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep following changes from other members")
	return cmd
}

func printList(out io.Writer, agent *syncclient.Agent) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t\tITEM\tAMOUNT\tCATEGORY\tSYNC")
	for _, it := range agent.View() {
		mark := "[ ]"
		if !it.Value.Active {
			mark = "[x]"
		}
		amount := strings.TrimSpace(it.Value.Quantity.String() + " " + it.Value.Unit.String())
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", it.Value.ID, mark, it.Value.Name, amount, it.Value.Category, it.State)
	}
	tw.Flush()
	if n := agent.Unsynced(); n > 0 {
		fmt.Fprintf(out, "%d change(s) could not be synced and were dropped\n", n)
	}
}
