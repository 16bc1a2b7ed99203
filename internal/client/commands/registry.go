package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"chessrules/internal/client/display"
	"chessrules/internal/server/game"
)

// ErrExit is returned by the exit command; the REPL loop stops on it
var ErrExit = errors.New("exit requested")

type Session interface {
	Game() *game.Game
	SetGame(*game.Game)
	Writer() io.Writer
	IsVerbose() bool
	PlayerNames() (white, black string)
	SetPlayerNames(white, black string)
}

// Command defines a REPL command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(Session, []string) error
}

// Registry manages command registration and execution
type Registry struct {
	session  Session
	commands map[string]*Command
	order    []*Command
}

func NewRegistry(session Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	r.registerGameCommands()

	r.Register(&Command{
		Name:        "clear",
		ShortName:   "-",
		Description: "Clear screen",
		Usage:       "clear",
		Handler:     clearHandler,
	})

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     r.helpHandler,
	})

	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Description: "Exit",
		Usage:       "exit",
		Handler:     exitHandler,
	})

	return r
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
	r.order = append(r.order, cmd)
}

// Names lists every command name, for completion
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, cmd := range r.order {
		names = append(names, cmd.Name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one input line. Only ErrExit is returned; other handler
// errors are printed.
func (r *Registry) Execute(input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	w := r.session.Writer()
	cmd, exists := r.commands[strings.ToLower(parts[0])]
	if !exists {
		display.Errorf(w, "Unknown command: %s", parts[0])
		fmt.Fprintln(w, "Type 'help' for available commands")
		return nil
	}

	if err := cmd.Handler(r.session, parts[1:]); err != nil {
		if errors.Is(err, ErrExit) {
			return err
		}
		display.Errorf(w, "Error: %s", err.Error())
	}
	return nil
}

func (r *Registry) helpHandler(s Session, args []string) error {
	w := s.Writer()
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(w, "\n%s - %s\n", display.Paint(display.Cyan, cmd.Name), cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(w, "Short form: %s\n", display.Paint(display.Cyan, cmd.ShortName))
		}
		fmt.Fprintf(w, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(w, "\n%s\n\n", display.Paint(display.Cyan, "Available Commands:"))
	for _, cmd := range r.order {
		shortPart := "    "
		if cmd.ShortName != "" {
			shortPart = "[" + display.Paint(display.Cyan, cmd.ShortName) + "] "
		}
		fmt.Fprintf(w, "  %s%-10s %s\n", shortPart, cmd.Name, cmd.Description)
	}
	fmt.Fprintln(w, "\nType 'help <command>' for detailed usage")
	return nil
}

func clearHandler(s Session, args []string) error {
	fmt.Fprint(s.Writer(), "\033[H\033[2J")
	return nil
}

func exitHandler(s Session, args []string) error {
	fmt.Fprintln(s.Writer(), display.Paint(display.Cyan, "Goodbye!"))
	return ErrExit
}
