package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/qs3c/vivah_server/internal/client"
)

func newGateCommand(opts *rootOptions) *cobra.Command {
	var send string

	cmd := &cobra.Command{
		Use:   "gate <user_id>",
		Short: "Check whether the token's user may chat with another user",
		Long: `Open the chat gate for <user_id> and print every state transition
(pending, then allowed or denied). With --send the gate is re-checked and
the message is sent only when access is allowed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireToken(opts); err != nil {
				return err
			}
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			c := client.New(opts.Server, opts.Token)
			p := &printer{format: opts.Format, w: cmd.OutOrStdout()}
			return runGate(cmd.Context(), c, p, userID, send)
		},
	}

	cmd.Flags().StringVar(&send, "send", "", "message to send when allowed")
	return cmd
}

type gateLine struct {
	Subject int64  `json:"subject"`
	State   string `json:"state"`
	MatchID string `json:"match_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func runGate(ctx context.Context, c *client.Client, p *printer, userID int64, send string) error {
	var printErr error
	gate := client.NewGate(c, func(d client.Decision) {
		line := gateLine{Subject: d.Subject, State: d.State, MatchID: d.MatchID, Reason: d.Reason}
		if err := p.print(line, "user %d: %s %s %s", d.Subject, d.State, d.MatchID, d.Reason); err != nil && printErr == nil {
			printErr = err
		}
	})

	decision, err := gate.Open(ctx, userID)
	if err != nil {
		return err
	}
	if send == "" {
		return printErr
	}

	// 发送前重新检查，打开之后匹配可能已被解除
	decision, err = gate.Recheck(ctx)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		return fmt.Errorf("not sent: chat with user %d is %s", userID, decision.State)
	}

	msg, err := c.SendMessage(ctx, userID, send)
	if err != nil {
		return err
	}
	if err := p.print(msg, "sent #%d", msg.ID); err != nil {
		return err
	}
	return printErr
}
