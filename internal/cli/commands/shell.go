package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leaporm/pkg/orm"
	"github.com/leapstack-labs/leaporm/pkg/query"
	"github.com/spf13/cobra"
)

const (
	shellPrompt     = "leaporm> "
	shellTxPrompt   = "leaporm*> "
	shellMorePrompt = "    ...> "
)

// NewShellCommand creates the interactive shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run query documents interactively",
		Long: `Start an interactive session against the configured database.

Enter a query document terminated by a semicolon to fetch matching rows.
Dot-commands list models, inspect tables and manage a transaction that
subsequent queries run in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)

			e, err := openEngine(ctx, cfg, cfg.AutoMigrate)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, e)

			s := newShellSession(e, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Output)
			defer s.close(ctx)

			var history string
			if cfg.ProjectRoot != "" {
				history = filepath.Join(cfg.ProjectRoot, ".leaporm_history")
			}
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          s.prompt(),
				HistoryFile:     history,
				AutoComplete:    s.completer(),
				InterruptPrompt: "^C",
				EOFPrompt:       ".quit",
				Stdin:           io.NopCloser(cmd.InOrStdin()),
				Stdout:          cmd.OutOrStdout(),
				Stderr:          cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize shell: %w", err)
			}
			defer func() { _ = rl.Close() }()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "leaporm shell. Type .help for commands, .quit to exit")
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					s.buf.Reset()
					rl.SetPrompt(s.prompt())
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if s.handle(ctx, line) {
					return nil
				}
				rl.SetPrompt(s.prompt())
			}
		},
	}
}

// shellSession holds the state of one interactive session.
type shellSession struct {
	e      *orm.Engine
	out    io.Writer
	errOut io.Writer
	format string
	txID   string
	buf    strings.Builder
}

func newShellSession(e *orm.Engine, out, errOut io.Writer, format string) *shellSession {
	return &shellSession{e: e, out: out, errOut: errOut, format: format}
}

func (s *shellSession) prompt() string {
	switch {
	case s.buf.Len() > 0:
		return shellMorePrompt
	case s.txID != "":
		return shellTxPrompt
	default:
		return shellPrompt
	}
}

// handle processes one input line and reports whether the session ended.
func (s *shellSession) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if s.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return s.dot(ctx, line)
	}

	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString(" ")
		return false
	}
	doc := strings.TrimSuffix(s.buf.String(), ";")
	s.buf.Reset()

	if err := s.fetch(ctx, []byte(doc)); err != nil {
		s.fail(err)
	}
	return false
}

func (s *shellSession) fetch(ctx context.Context, doc []byte) error {
	def, err := query.Parse(doc)
	if err != nil {
		return err
	}
	schema, err := s.e.Registry().Get(def.Model)
	if err != nil {
		return err
	}
	handles, err := s.e.FetchFiltered(ctx, def.Model, doc, s.txID)
	if err != nil {
		return err
	}
	return renderRecords(s.out, schema, handles, s.format)
}

func (s *shellSession) dot(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	name := strings.ToLower(parts[0])
	switch name {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(s.out)

	case ".models":
		for _, name := range s.e.Registry().Names() {
			_, _ = fmt.Fprintln(s.out, name)
		}

	case ".inspect":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .inspect <table>")
			return false
		}
		meta, err := s.e.TableMetadata(ctx, parts[1])
		if err == nil {
			err = renderMetadata(s.out, meta, s.format)
		}
		if err != nil {
			s.fail(err)
		}

	case ".count":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .count <model>")
			return false
		}
		doc := fmt.Sprintf(`{"model_name": %q}`, parts[1])
		n, err := s.e.CountFiltered(ctx, parts[1], []byte(doc), s.txID)
		if err != nil {
			s.fail(err)
			return false
		}
		_, _ = fmt.Fprintln(s.out, n)

	case ".begin":
		if s.txID != "" {
			_, _ = fmt.Fprintln(s.errOut, "A transaction is already open")
			return false
		}
		id, err := s.e.Begin(ctx)
		if err != nil {
			s.fail(err)
			return false
		}
		s.txID = id
		_, _ = fmt.Fprintf(s.out, "Began transaction %s\n", id)

	case ".commit", ".rollback":
		if s.txID == "" {
			_, _ = fmt.Fprintln(s.errOut, "No open transaction")
			return false
		}
		id := s.txID
		s.txID = ""
		var err error
		if name == ".commit" {
			err = s.e.Commit(ctx, id)
		} else {
			err = s.e.Rollback(ctx, id)
		}
		if err != nil {
			s.fail(err)
			return false
		}
		_, _ = fmt.Fprintf(s.out, "Ended transaction %s\n", id)

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

// close rolls back a transaction left open when the session ends.
func (s *shellSession) close(ctx context.Context) {
	if s.txID == "" {
		return
	}
	if err := s.e.Rollback(ctx, s.txID); err != nil {
		s.fail(err)
	}
	s.txID = ""
}

func (s *shellSession) fail(err error) {
	_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
}

func (s *shellSession) completer() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".models"),
		readline.PcItem(".inspect"),
		readline.PcItem(".count"),
		readline.PcItem(".begin"),
		readline.PcItem(".commit"),
		readline.PcItem(".rollback"),
		readline.PcItem(".quit"),
	}
	for _, name := range s.e.Registry().Names() {
		items = append(items, readline.PcItem(fmt.Sprintf(`{"model_name": %q`, name)))
	}
	return readline.NewPrefixCompleter(items...)
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .models           List registered models
  .inspect <table>  Show the live columns of a table
  .count <model>    Count the rows of a model
  .begin            Open a transaction for subsequent queries
  .commit           Commit the open transaction
  .rollback         Roll back the open transaction
  .quit / .exit     Exit the shell

Query documents must end with a semicolon (;), for example:
  {"model_name": "user", "limit": 10};
`
	_, _ = fmt.Fprintln(w, help)
}
