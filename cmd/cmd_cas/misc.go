package cmd_cas

import (
	"fmt"
	"time"

	"github.com/rskv-p/cas/cmd/cmd_env"
	"github.com/rskv-p/cas/pkg/x_log"
	"github.com/rskv-p/cas/servs/s_cas/cas_api"
	"github.com/spf13/cobra"
)

// Register adds the index commands to root.
func Register(root *cobra.Command) {
	root.AddCommand(loadCmd, queryCmd, statsCmd, shellCmd, serveCmd, tokenCmd, hashCmd, logsCmd, configCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the mutating API routes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := cmd_env.Config()
		if err != nil {
			return err
		}
		subject, _ := cmd.Flags().GetString("subject")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		tok, err := cas_api.IssueToken(cfg.API.JWTSecret, subject, role, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash-password PASSWORD",
	Short: "Print the bcrypt hash for api.admin_hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := cas_api.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the tail of the log file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := cmd_env.Config()
		if err != nil {
			return err
		}
		n, _ := cmd.Flags().GetInt("lines")
		lines, err := x_log.Tail(cfg.Log.LogFile, n)
		if err != nil {
			return err
		}
		x_log.PrintLines(cmd.OutOrStdout(), lines, "│")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := cmd_env.Config()
		if err != nil {
			return err
		}
		cfg.Dump(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("subject", "cli", "token subject")
	tokenCmd.Flags().String("role", "admin", "role claim")
	tokenCmd.Flags().Duration("ttl", 12*time.Hour, "token lifetime")
	logsCmd.Flags().IntP("lines", "n", 50, "number of lines")
}
