// Package shell provides an interactive console over a log engine.
//
// The "log" command dumps every registered log; other commands append to,
// flush and inspect individual logs.
package shell

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"

	"github.com/mash-protocol/devlog/internal/dump"
	"github.com/mash-protocol/devlog/internal/filter"
	"github.com/mash-protocol/devlog/pkg/log"
)

// Shell handles interactive mode for devlog.
type Shell struct {
	engine *log.Engine
	rl     *readline.Instance
	out    io.Writer
}

// New creates a shell over engine with a readline prompt.
func New(engine *log.Engine) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "devlog> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create readline")
	}
	return &Shell{engine: engine, rl: rl, out: rl.Stdout()}, nil
}

// NewWithWriter creates a shell without a terminal. Commands are fed
// through Exec and output goes to w.
func NewWithWriter(engine *log.Engine, w io.Writer) *Shell {
	return &Shell{engine: engine, out: w}
}

// Stdout returns a writer that properly coordinates with the readline input.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run starts the interactive command loop. It returns when the user quits,
// input ends or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) {
	if s.rl == nil {
		return
	}
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}

		if quit := s.Exec(line); quit {
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "log":
		s.cmdLog(args)

	case "list", "ls":
		s.cmdList()

	case "append", "a":
		s.cmdAppend(args)

	case "flush":
		s.cmdFlush(args)

	case "level":
		s.cmdLevel(args)

	case "info":
		s.cmdInfo()

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
devlog Commands:
  Logs:
    log [expr]                       - Dump all logs (optional filter expression)
    list                             - List registered logs
    append <log> <level> <module> <text...>
                                     - Append an entry
    flush <log>                      - Erase a log (resets the global index)
    level <log> <level>              - Change a log's minimum level
    info                             - Show the global index and timestamp

  General:
    help                             - Show this help
    quit                             - Exit shell

  Filter Expressions:
    level >= WARN && module == 4
    log == "reboot" || text.contains("panic")`)
}

// cmdLog dumps every registered log.
func (s *Shell) cmdLog(args []string) {
	f, err := filter.Compile(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if err := dump.All(s.engine, s.out, f); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *Shell) cmdList() {
	n := 0
	for inst := s.engine.Next(nil); inst != nil; inst = s.engine.Next(inst) {
		fmt.Fprintf(s.out, "  %-16s level=%s\n", inst.Name(), inst.Level())
		n++
	}
	if n == 0 {
		fmt.Fprintln(s.out, "No logs registered")
	}
}

func (s *Shell) find(name string) *log.Instance {
	inst := s.engine.Registry().Find(name)
	if inst == nil {
		fmt.Fprintf(s.out, "Unknown log: %s\n", name)
	}
	return inst
}

func (s *Shell) cmdAppend(args []string) {
	if len(args) < 4 {
		fmt.Fprintln(s.out, "Usage: append <log> <level> <module> <text...>")
		return
	}
	inst := s.find(args[0])
	if inst == nil {
		return
	}
	level, err := log.ParseLevel(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	module, err := log.ParseModule(args[2])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	err = s.engine.Printf(inst, module, level, "%s", strings.Join(args[3:], " "))
	switch {
	case log.IsFiltered(err):
		fmt.Fprintf(s.out, "Filtered: %s is below %s\n", level, inst.Level())
	case err != nil:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	default:
		fmt.Fprintf(s.out, "Appended #%d\n", s.engine.Info().Index)
	}
}

func (s *Shell) cmdFlush(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: flush <log>")
		return
	}
	inst := s.find(args[0])
	if inst == nil {
		return
	}
	if err := s.engine.Flush(inst); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Flushed %s\n", inst.Name())
}

func (s *Shell) cmdLevel(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: level <log> <level>")
		return
	}
	inst := s.find(args[0])
	if inst == nil {
		return
	}
	level, err := log.ParseLevel(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	inst.SetLevel(level)
	fmt.Fprintf(s.out, "%s level=%s\n", inst.Name(), level)
}

func (s *Shell) cmdInfo() {
	info := s.engine.Info()
	fmt.Fprintf(s.out, "index=%d timestamp_us=%d version=%d\n", info.Index, info.Timestamp, info.Version)
}
