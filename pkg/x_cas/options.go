// file:cas/pkg/x_cas/options.go
package x_cas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnknownPolicy is returned when a policy name cannot be parsed.
var ErrUnknownPolicy = errors.New("unknown policy")

//---------------------
// Policies
//---------------------

// UpdateType selects how insertion and deletion restructure the tree.
type UpdateType uint8

const (
	StrictSlow UpdateType = iota // rebuild the affected subtree by bulk load
	LazyFast                     // split or merge nodes in place
)

func (u UpdateType) String() string {
	if u == LazyFast {
		return "lazy"
	}
	return "strict"
}

// ParseUpdateType accepts "lazy"/"lazyfast" and "strict"/"strictslow".
func ParseUpdateType(s string) (UpdateType, error) {
	switch strings.ToLower(s) {
	case "lazy", "lazyfast", "lazy_fast":
		return LazyFast, nil
	case "strict", "strictslow", "strict_slow":
		return StrictSlow, nil
	}
	return 0, fmt.Errorf("update type %q: %w", s, ErrUnknownPolicy)
}

// InsertTarget selects the tree(s) an insertion may touch.
type InsertTarget uint8

const (
	MainOnly InsertTarget = iota
	AuxiliaryOnly
	MainAuxiliary // main tree unless a split would be needed
)

func (t InsertTarget) String() string {
	switch t {
	case AuxiliaryOnly:
		return "aux"
	case MainAuxiliary:
		return "main+aux"
	}
	return "main"
}

// ParseInsertTarget accepts "main", "aux" and "main+aux".
func ParseInsertTarget(s string) (InsertTarget, error) {
	switch strings.ToLower(s) {
	case "main", "mainonly":
		return MainOnly, nil
	case "aux", "auxiliary", "auxiliaryonly":
		return AuxiliaryOnly, nil
	case "main+aux", "mainauxiliary", "both":
		return MainAuxiliary, nil
	}
	return 0, fmt.Errorf("insert target %q: %w", s, ErrUnknownPolicy)
}

// MergeMethod selects how the auxiliary tree is folded into the main tree.
type MergeMethod uint8

const (
	MergeFast MergeMethod = iota // pair equal nodes, rebuild the rest
	MergeSlow                    // rebuild everything
)

func (m MergeMethod) String() string {
	if m == MergeSlow {
		return "slow"
	}
	return "fast"
}

// ParseMergeMethod accepts "fast" and "slow".
func ParseMergeMethod(s string) (MergeMethod, error) {
	switch strings.ToLower(s) {
	case "fast":
		return MergeFast, nil
	case "slow":
		return MergeSlow, nil
	}
	return 0, fmt.Errorf("merge method %q: %w", s, ErrUnknownPolicy)
}

//---------------------
// Options
//---------------------

// Options configures an Index.
type Options struct {
	InsertMain     UpdateType
	InsertAux      UpdateType
	Delete         UpdateType
	Target         InsertTarget
	Merge          MergeMethod
	MergeThreshold int // auxiliary keys that trigger a merge; 0 disables
	Logger         zerolog.Logger
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions splits lazily on insertion and rebuilds on deletion.
func DefaultOptions() Options {
	return Options{
		InsertMain: LazyFast,
		InsertAux:  LazyFast,
		Delete:     StrictSlow,
		Target:     MainOnly,
		Merge:      MergeFast,
		Logger:     zerolog.Nop(),
	}
}

func WithInsert(main, aux UpdateType) Option {
	return func(o *Options) {
		o.InsertMain = main
		o.InsertAux = aux
	}
}

func WithDelete(ut UpdateType) Option {
	return func(o *Options) { o.Delete = ut }
}

func WithTarget(t InsertTarget) Option {
	return func(o *Options) { o.Target = t }
}

// WithMerge sets the merge method and the auxiliary size that triggers it.
func WithMerge(m MergeMethod, threshold int) Option {
	return func(o *Options) {
		o.Merge = m
		o.MergeThreshold = threshold
	}
}

// WithMergeThreshold keeps the merge method and sets the trigger size.
func WithMergeThreshold(threshold int) Option {
	return func(o *Options) { o.MergeThreshold = threshold }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
