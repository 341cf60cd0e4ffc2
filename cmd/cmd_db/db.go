package cmd_db

import (
	"fmt"
	"os"

	"github.com/rskv-p/cas/cmd/cmd_cas"
	"github.com/rskv-p/cas/cmd/cmd_env"
	"github.com/rskv-p/cas/pkg/x_db"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "db",
	Short: "Manage datasets stored in the database",
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return x_db.Shutdown()
	},
}

func open() (*x_db.DAO, error) {
	cfg, err := cmd_env.Config()
	if err != nil {
		return nil, err
	}
	if err := x_db.Init(cfg.DBConfig()); err != nil {
		return nil, err
	}
	return x_db.Global()
}

var importCmd = &cobra.Command{
	Use:   "import FILE NAME",
	Short: "Store a path;value;did file as dataset NAME",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cmd_env.Config()
		if err != nil {
			return err
		}
		store, err := cas_serv.New(cfg)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := store.Import(f, cfg.Delim(), true)
		if err != nil {
			return err
		}
		dao, err := open()
		if err != nil {
			return err
		}
		if err := store.Save(cmd.Context(), dao, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %d keys as %s\n", n, args[1])
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export NAME [FILE]",
	Short: "Write dataset NAME as path;value;did lines",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cmd_env.Config()
		if err != nil {
			return err
		}
		store, err := cas_serv.New(cfg)
		if err != nil {
			return err
		}
		dao, err := open()
		if err != nil {
			return err
		}
		if _, err := store.Restore(cmd.Context(), dao, args[0]); err != nil {
			return err
		}
		if len(args) == 1 {
			return store.Export(cmd.OutOrStdout(), cfg.Delim())
		}
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := store.Export(f, cfg.Delim()); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored datasets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dao, err := open()
		if err != nil {
			return err
		}
		list, err := dao.Datasets(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, ds := range list {
			rows = append(rows, []string{
				ds.Name,
				ds.ValueType,
				fmt.Sprint(ds.Keys),
				ds.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), cmd_cas.Table([]string{"name", "type", "keys", "created"}, rows))
		return nil
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop NAME",
	Short: "Delete a stored dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dao, err := open()
		if err != nil {
			return err
		}
		return dao.Drop(cmd.Context(), args[0])
	},
}

func init() {
	Cmd.AddCommand(importCmd, exportCmd, listCmd, dropCmd)
}
