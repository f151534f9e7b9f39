package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/pkg/jwt"
)

// newTokenCommand 用配置中的密钥签发调试令牌，生产令牌由认证服务签发
func newTokenCommand(opts *rootOptions) *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "token <user_id>",
		Short: "Sign a development token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			token, err := jwt.GenerateToken(userID, cfg.JWT.Secret, hours)
			if err != nil {
				return err
			}

			p := &printer{format: opts.Format, w: cmd.OutOrStdout()}
			return p.print(map[string]interface{}{"user_id": userID, "token": token}, "%s", token)
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "token lifetime in hours")
	return cmd
}
