// file:cas/pkg/x_log/x_log.go

// Package x_log configures zerolog for the whole process: styled console
// output, rotated log files and per-module child loggers.
package x_log

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.Mutex
	active = defaultConfig
	file   *lumberjack.Logger
)

//---------------------
// Initialization
//---------------------

// Init loads the config from XLOG_CONFIG or ./xlog.json and installs it.
func Init() {
	cfg, err := LoadConfig("")
	if err != nil {
		c := defaultConfig
		cfg = &c
	}
	InitWithConfig(cfg, "")
	if err != nil {
		log.Warn().Err(err).Msg("log config ignored")
	}
}

// InitWithConfig installs cfg as the global logger. A non-empty module is
// attached to every line.
func InitWithConfig(cfg *Config, module string) {
	c := *cfg
	applyDefaults(&c)

	mu.Lock()
	defer mu.Unlock()

	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if file != nil {
		_ = file.Close()
		file = nil
	}

	var writers []io.Writer
	if c.ToConsole || !c.ToFile {
		styles := DefaultStylesByName(c.Style)
		styles.Out = os.Stdout
		styles.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
		writers = append(writers, ConsoleWriterWithStyles(styles))
	}
	if c.ToFile {
		file = &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAge,
			Compress:   c.Compress,
		}
		if c.ColoredFile {
			styles := DefaultStylesByName(c.Style)
			styles.Out = file
			writers = append(writers, ConsoleWriterWithStyles(styles))
		} else {
			writers = append(writers, file)
		}
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp()
	if module != "" {
		ctx = ctx.Str("module", module)
	}
	log.Logger = ctx.Logger()
	active = c
}

// Active returns the config installed last.
func Active() Config {
	mu.Lock()
	defer mu.Unlock()
	return active
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

//---------------------
// Loggers
//---------------------

// New returns a child of the global logger scoped to module.
func New(module string) zerolog.Logger {
	return log.Logger.With().Str("module", module).Logger()
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// From returns the logger stored in ctx, or the global logger.
func From(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

//---------------------
// Shortcuts
//---------------------

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }
func Fatal() *zerolog.Event { return log.Fatal() }
