package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions 全局参数
type rootOptions struct {
	ConfigPath string
	Server     string
	Token      string
	Format     string // text | json
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "matchctl",
		Short: "Operator and client tool for the match server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", envOr("CONFIG_PATH", "config.yaml"), "config file (server-side commands)")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr("MATCHCTL_SERVER", "http://localhost:8080"), "server base URL (client commands)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("MATCHCTL_TOKEN"), "bearer token (client commands)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newReconcileCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newGateCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// printer 按 --format 输出
type printer struct {
	format string
	w      io.Writer
}

func (p *printer) print(data interface{}, text string, args ...interface{}) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		return enc.Encode(data)
	}
	_, err := fmt.Fprintf(p.w, text+"\n", args...)
	return err
}

func requireToken(opts *rootOptions) error {
	if opts.Token == "" {
		return fmt.Errorf("--token or MATCHCTL_TOKEN is required")
	}
	return nil
}
