package cmd_cas

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/rskv-p/cas/cmd/cmd_env"
	"github.com/rskv-p/cas/config"
	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/rskv-p/cas/pkg/x_imp"
	"github.com/rskv-p/cas/pkg/x_log"
	"github.com/rskv-p/cas/pkg/x_seq"
	"github.com/spf13/cobra"
)

// dataset is a CSV file loaded into a fresh index.
type dataset[V x_cas.Value] struct {
	keys []x_cas.Key[V]
	idx  *x_cas.Index[V]
	took time.Duration
}

func loadDataset[V x_cas.Value](cfg *config.Config, file string, point bool) (*dataset[V], error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	keys, err := x_imp.New[V](cfg.Delim()).ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	opts, err := cfg.IndexOptions()
	if err != nil {
		return nil, err
	}
	idx := x_cas.New[V](append(opts, x_cas.WithLogger(x_log.New("cas")))...)

	ds := &dataset[V]{keys: keys, idx: idx}
	if point {
		start := time.Now()
		for _, k := range keys {
			idx.Put(k)
		}
		ds.took = time.Since(start)
	} else {
		ds.took = idx.BulkLoad(keys)
	}
	return ds, nil
}

//---------------------
// load
//---------------------

var loadCmd = &cobra.Command{
	Use:   "load FILE",
	Short: "Load a path;value;did file and report timing and shape",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cmd_env.Config()
		if err != nil {
			return err
		}
		point, _ := cmd.Flags().GetBool("point")
		switch cfg.ValueType {
		case "int32":
			return runLoad[int32](cmd.OutOrStdout(), cfg, args[0], point)
		case "int64":
			return runLoad[int64](cmd.OutOrStdout(), cfg, args[0], point)
		}
		return runLoad[string](cmd.OutOrStdout(), cfg, args[0], point)
	},
}

func runLoad[V x_cas.Value](w io.Writer, cfg *config.Config, file string, point bool) error {
	ds, err := loadDataset[V](cfg, file, point)
	if err != nil {
		return err
	}
	what := "bulk loaded"
	if point {
		what = "inserted"
	}
	printTiming(w, what, len(ds.keys), ds.took)
	printIndexStats(w, ds.idx.Stats())
	return nil
}

//---------------------
// query
//---------------------

type queryFlags struct {
	low, high string
	point     bool
	verify    bool
	limit     int
	repeat    int
}

var qf queryFlags

var queryCmd = &cobra.Command{
	Use:   "query FILE PATTERN",
	Short: "Run a path pattern and value range against a file",
	Long: `Patterns use / for the child axis, // for descendant-or-self and ?
for any single label, e.g. /usr//lib or //?/bin.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cmd_env.Config()
		if err != nil {
			return err
		}
		lowSet, highSet := cmd.Flags().Changed("low"), cmd.Flags().Changed("high")
		out := cmd.OutOrStdout()
		switch cfg.ValueType {
		case "int32":
			return runQuery[int32](out, cfg, args[0], args[1], lowSet, highSet)
		case "int64":
			return runQuery[int64](out, cfg, args[0], args[1], lowSet, highSet)
		}
		return runQuery[string](out, cfg, args[0], args[1], lowSet, highSet)
	},
}

func searchKey[V x_cas.Value](pattern, low, high string, lowSet, highSet bool) (x_cas.BinarySearchKey, error) {
	q, err := x_cas.ParseQueryPath(pattern)
	if err != nil {
		return x_cas.BinarySearchKey{}, err
	}
	bsk := x_cas.BinarySearchKey{Path: q}
	bsk.Low, bsk.High = x_cas.Unbounded[V]()
	if lowSet {
		v, err := x_imp.ParseValue[V](low)
		if err != nil {
			return bsk, fmt.Errorf("--low: %w", err)
		}
		bsk.Low = x_cas.EncodeValue(v)
	}
	if highSet {
		v, err := x_imp.ParseValue[V](high)
		if err != nil {
			return bsk, fmt.Errorf("--high: %w", err)
		}
		bsk.High = x_cas.EncodeValue(v)
	}
	return bsk, nil
}

func runQuery[V x_cas.Value](w io.Writer, cfg *config.Config, file, pattern string, lowSet, highSet bool) error {
	bsk, err := searchKey[V](pattern, qf.low, qf.high, lowSet, highSet)
	if err != nil {
		return err
	}
	ds, err := loadDataset[V](cfg, file, qf.point)
	if err != nil {
		return err
	}

	var matches []x_cas.Key[V]
	emit := x_cas.DecodingEmitter(func(k x_cas.Key[V]) { matches = append(matches, k) })
	runs := make([]x_cas.QueryStats, 0, max(qf.repeat, 1))
	runs = append(runs, ds.idx.QueryBinary(bsk, emit))
	for i := 1; i < qf.repeat; i++ {
		runs = append(runs, ds.idx.QueryBinary(bsk, nil))
	}

	shown := matches
	if qf.limit > 0 && len(shown) > qf.limit {
		shown = shown[:qf.limit]
	}
	if err := x_imp.Write(w, shown, cfg.Delim()); err != nil {
		return err
	}
	if len(shown) < len(matches) {
		fmt.Fprintf(w, "... %d more\n", len(matches)-len(shown))
	}
	printQueryStats(w, x_cas.AvgQueryStats(runs))

	if qf.verify {
		return verify(w, ds.keys, bsk, matches)
	}
	return nil
}

// verify compares the index result with a sequential scan.
func verify[V x_cas.Value](w io.Writer, keys []x_cas.Key[V], bsk x_cas.BinarySearchKey, got []x_cas.Key[V]) error {
	seq := x_seq.New[V]()
	seq.BulkLoad(keys)
	var want []uint64
	st := seq.QueryBinary(bsk, x_cas.CollectDIDs(&want))

	have := make([]uint64, len(got))
	for i, k := range got {
		have[i] = k.DID
	}
	slices.Sort(have)
	slices.Sort(want)
	if !slices.Equal(have, want) {
		fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("MISMATCH: index %d, scan %d", len(have), len(want))))
		return fmt.Errorf("verification failed")
	}
	fmt.Fprintf(w, "%s scan read %d keys in %s\n", okStyle.Render("OK"), st.ReadLeaves, st.Runtime)
	return nil
}

//---------------------
// stats
//---------------------

var statsCmd = &cobra.Command{
	Use:   "stats FILE",
	Short: "Print the shape of the index built from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cmd_env.Config()
		if err != nil {
			return err
		}
		point, _ := cmd.Flags().GetBool("point")
		dump, _ := cmd.Flags().GetBool("dump")
		out := cmd.OutOrStdout()
		switch cfg.ValueType {
		case "int32":
			return runStats[int32](out, cfg, args[0], point, dump)
		case "int64":
			return runStats[int64](out, cfg, args[0], point, dump)
		}
		return runStats[string](out, cfg, args[0], point, dump)
	},
}

func runStats[V x_cas.Value](w io.Writer, cfg *config.Config, file string, point, dump bool) error {
	ds, err := loadDataset[V](cfg, file, point)
	if err != nil {
		return err
	}
	st := ds.idx.Stats()
	printIndexStats(w, st)
	printDepths(w, st)
	if dump {
		ds.idx.Dump(w)
	}
	return nil
}

func init() {
	loadCmd.Flags().Bool("point", false, "insert key by key instead of bulk loading")

	queryCmd.Flags().StringVar(&qf.low, "low", "", "lower value bound (default unbounded)")
	queryCmd.Flags().StringVar(&qf.high, "high", "", "upper value bound (default unbounded)")
	queryCmd.Flags().BoolVar(&qf.point, "point", false, "build the index by point insertion")
	queryCmd.Flags().BoolVar(&qf.verify, "verify", false, "check the result against a sequential scan")
	queryCmd.Flags().IntVar(&qf.limit, "limit", 20, "matches to print, 0 for all")
	queryCmd.Flags().IntVar(&qf.repeat, "repeat", 1, "run the query n times and average the stats")

	statsCmd.Flags().Bool("point", false, "build the index by point insertion")
	statsCmd.Flags().Bool("dump", false, "print the tree")
}
