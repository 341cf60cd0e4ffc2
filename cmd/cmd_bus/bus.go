package cmd_bus

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/rskv-p/cas/cmd/cmd_env"
	"github.com/rskv-p/cas/servs/s_cas/cas_bus"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "bus",
	Short: "Talk to a running index over NATS",
}

func dial() (*cas_bus.Client, error) {
	cfg, err := cmd_env.Config()
	if err != nil {
		return nil, err
	}
	return cas_bus.Dial(cfg.NATS.URL, cfg.NATS.Prefix, cfg.NATS.Timeout)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

var queryCmd = &cobra.Command{
	Use:   "query PATTERN",
	Short: "Query the remote index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := dial()
		if err != nil {
			return err
		}
		defer cli.Close()

		req := cas_serv.QueryRequest{Path: args[0]}
		req.Limit, _ = cmd.Flags().GetInt("limit")
		if cmd.Flags().Changed("low") {
			req.Low, _ = cmd.Flags().GetString("low")
		}
		if cmd.Flags().Changed("high") {
			req.High, _ = cmd.Flags().GetString("high")
		}
		res, err := cli.Query(req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func record(args []string) (cas_serv.Record, error) {
	did, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return cas_serv.Record{}, fmt.Errorf("did: %w", err)
	}
	return cas_serv.Record{Path: args[0], Value: args[1], DID: did}, nil
}

var insertCmd = &cobra.Command{
	Use:   "insert PATH VALUE DID",
	Short: "Insert a key into the remote index",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := record(args)
		if err != nil {
			return err
		}
		cli, err := dial()
		if err != nil {
			return err
		}
		defer cli.Close()
		res, err := cli.Insert(rec)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete PATH VALUE DID",
	Short: "Delete a key from the remote index",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := record(args)
		if err != nil {
			return err
		}
		cli, err := dial()
		if err != nil {
			return err
		}
		defer cli.Close()
		res, err := cli.Delete(rec)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

// simple wraps the argument-less calls.
func simple(use, short string, call func(*cas_bus.Client) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := dial()
			if err != nil {
				return err
			}
			defer cli.Close()
			v, err := call(cli)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}

func init() {
	queryCmd.Flags().String("low", "", "lower value bound")
	queryCmd.Flags().String("high", "", "upper value bound")
	queryCmd.Flags().Int("limit", 100, "maximum matches returned, 0 for all")

	Cmd.AddCommand(queryCmd, insertCmd, deleteCmd,
		simple("stats", "Remote index statistics", func(c *cas_bus.Client) (any, error) { return c.Stats() }),
		simple("info", "Remote store description", func(c *cas_bus.Client) (any, error) { return c.Info() }),
		simple("merge", "Merge the remote auxiliary index", func(c *cas_bus.Client) (any, error) { return c.Merge() }),
	)
}
