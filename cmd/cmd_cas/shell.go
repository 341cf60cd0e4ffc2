package cmd_cas

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/shlex"
	"github.com/mattn/go-isatty"
	"github.com/rskv-p/cas/cmd/cmd_env"
	"github.com/rskv-p/cas/config"
	"github.com/rskv-p/cas/pkg/x_db"
	"github.com/rskv-p/cas/pkg/x_log"
	recoverpkg "github.com/rskv-p/cas/recover"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
	"github.com/spf13/cobra"
)

const shellHelp = `commands:
  load FILE [bulk]          import path;value;did lines
  insert PATH VALUE DID     add one key
  delete PATH VALUE DID     remove one key
  query PATTERN [LOW [HIGH]] run a query; - leaves a bound open
  export [FILE]             write every key
  save NAME | restore NAME  store or load a dataset in the database
  merge                     fold the auxiliary index into the main one
  stats | info | help | quit`

var errQuit = errors.New("quit")

// shell runs line commands against one store.
type shell struct {
	store cas_serv.Store
	cfg   *config.Config
	out   io.Writer
	limit int
}

var shellCmd = &cobra.Command{
	Use:   "shell [FILE]",
	Short: "Interactive session on an in-memory index",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cmd_env.Config()
		if err != nil {
			return err
		}
		store, err := cas_serv.New(cfg)
		if err != nil {
			return err
		}
		sh := &shell{store: store, cfg: cfg, out: cmd.OutOrStdout(), limit: 20}
		if len(args) == 1 {
			if err := sh.exec("load " + strconv.Quote(args[0]) + " bulk"); err != nil {
				return err
			}
		}
		defer x_db.Shutdown()
		return sh.run(cmd.InOrStdin(), isatty.IsTerminal(os.Stdin.Fd()))
	},
}

func (sh *shell) run(in io.Reader, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(sh.out, "cas> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()
		err := recoverpkg.Func(x_log.New("shell"), "shell", "exec", func() error {
			return sh.exec(line)
		})
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(sh.out, failStyle.Render("error:"), err)
		}
	}
}

// exec runs one line. Quoted words keep their spaces.
func (sh *shell) exec(line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return nil
	}
	args := words[1:]
	switch words[0] {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintln(sh.out, shellHelp)
	case "load":
		return sh.load(args)
	case "insert", "delete":
		return sh.update(words[0], args)
	case "query":
		return sh.query(args)
	case "export":
		return sh.export(args)
	case "save", "restore":
		return sh.db(words[0], args)
	case "merge":
		sh.store.Merge()
		fmt.Fprintln(sh.out, "merged")
	case "stats":
		st := sh.store.Stats()
		printIndexStats(sh.out, st)
	case "info":
		b, _ := json.MarshalIndent(sh.store.Info(), "", "  ")
		fmt.Fprintln(sh.out, string(b))
	default:
		return fmt.Errorf("unknown command %q, try help", words[0])
	}
	return nil
}

func (sh *shell) load(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: load FILE [bulk]")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	bulk := len(args) == 2 && args[1] == "bulk"
	n, err := sh.store.Import(f, sh.cfg.Delim(), bulk)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%d keys loaded\n", n)
	return nil
}

func (sh *shell) update(op string, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: %s PATH VALUE DID", op)
	}
	did, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("did: %w", err)
	}
	rec := cas_serv.Record{Path: args[0], Value: args[1], DID: did}
	if op == "insert" {
		res, err := sh.store.Insert(rec)
		if err != nil {
			return err
		}
		where := "main"
		if res.Stats.Auxiliary {
			where = "aux"
		}
		fmt.Fprintf(sh.out, "inserted into %s in %s\n", where, res.Stats.Runtime)
		if res.Stats.Merged {
			fmt.Fprintln(sh.out, "auxiliary merged")
		}
		return nil
	}
	res, err := sh.store.Delete(rec)
	if err != nil {
		return err
	}
	if !res.Deleted {
		return errors.New("no such key")
	}
	fmt.Fprintln(sh.out, "deleted")
	return nil
}

func (sh *shell) query(args []string) error {
	if len(args) == 0 || len(args) > 3 {
		return errors.New("usage: query PATTERN [LOW [HIGH]]")
	}
	req := cas_serv.QueryRequest{Path: args[0]}
	if len(args) > 1 && args[1] != "-" {
		req.Low = args[1]
	}
	if len(args) > 2 && args[2] != "-" {
		req.High = args[2]
	}
	res, err := sh.store.Query(req)
	if err != nil {
		return err
	}
	for i, m := range res.Matches {
		if i == sh.limit {
			fmt.Fprintf(sh.out, "... %d more\n", len(res.Matches)-i)
			break
		}
		fmt.Fprintf(sh.out, "%s = %v  #%d\n", m.Path, m.Value, m.DID)
	}
	fmt.Fprintf(sh.out, "%d matches in %s\n", res.Stats.Matches, res.Stats.Runtime)
	return nil
}

func (sh *shell) export(args []string) error {
	if len(args) == 0 {
		return sh.store.Export(sh.out, sh.cfg.Delim())
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := sh.store.Export(f, sh.cfg.Delim()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (sh *shell) db(op string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s NAME", op)
	}
	dao, err := openDB(sh.cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if op == "save" {
		if err := sh.store.Save(ctx, dao, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "saved %s\n", args[0])
		return nil
	}
	n, err := sh.store.Restore(ctx, dao, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "restored %d keys\n", n)
	return nil
}

// openDB returns the process DAO, opening it on first use.
func openDB(cfg *config.Config) (*x_db.DAO, error) {
	if dao, err := x_db.Global(); err == nil {
		return dao, nil
	}
	if err := x_db.Init(cfg.DBConfig()); err != nil {
		return nil, err
	}
	return x_db.Global()
}
