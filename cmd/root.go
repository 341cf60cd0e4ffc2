package cmd

import (
	"os"

	"github.com/rskv-p/cas/cmd/cmd_bus"
	"github.com/rskv-p/cas/cmd/cmd_cas"
	"github.com/rskv-p/cas/cmd/cmd_db"
	"github.com/rskv-p/cas/cmd/cmd_env"
	"github.com/rskv-p/cas/pkg/x_log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "cas",
	Short:             "Content-and-structure index over path/value keys",
	SilenceUsage:      true,
	PersistentPreRunE: cmd_env.Setup,
}

func Execute() {
	err := rootCmd.Execute()
	_ = x_log.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cmd_env.Bind(rootCmd)
	cmd_cas.Register(rootCmd)
	rootCmd.AddCommand(cmd_db.Cmd)
	rootCmd.AddCommand(cmd_bus.Cmd)
}
