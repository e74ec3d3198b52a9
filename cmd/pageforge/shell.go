package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/livetemplate/pageforge"
	"github.com/livetemplate/pageforge/internal/editor"
	"github.com/livetemplate/pageforge/internal/render"
)

const shellHelp = `Commands:
  tree                          show the element tree
  add <type> [container]        append a palette element
  drop <type> <canvas|id>       drag a palette element onto the canvas or an element
  move <id> <canvas|id>         drag an element onto the canvas or an element
  select <id>                   select an element
  dup <id>                      duplicate an element
  rm <id>                       delete an element
  style <id> <property> [value] set or clear a style
  set <id> <property> <value>   set a property such as content or level
  undo, redo                    walk the history
  html                          render the page
  save                          write the page file
  help                          show this help
  exit                          leave the shell
Ids may be abbreviated to any unique prefix.`

var errExit = errors.New("exit requested")

var shellCmd = &cobra.Command{
	Use:   "shell <content.json>",
	Short: "Edit a page content file interactively",
	Long: `Shell opens a content file in an editing session. A missing file starts
an empty page; save writes the file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sh, err := newShell(args[0], cmd.OutOrStdout())
		if err != nil {
			return err
		}

		lines, err := newLineReader(cmd)
		if err != nil {
			return err
		}
		defer lines.Close()

		for {
			line, err := lines.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				fmt.Fprintln(sh.out, "Use 'exit' to leave the shell.")
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := sh.exec(line); err != nil {
				if errors.Is(err, errExit) {
					return nil
				}
				fmt.Fprintf(sh.out, "error: %v\n", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// lineReader is the part of *readline.Instance the shell loop uses.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// newLineReader uses readline on a terminal and plain line scanning for
// piped input.
func newLineReader(cmd *cobra.Command) (lineReader, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && readline.IsTerminal(int(f.Fd())) {
		return readline.NewEx(&readline.Config{
			Prompt:          "pageforge> ",
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			AutoComplete: readline.NewPrefixCompleter(
				readline.PcItem("tree"),
				readline.PcItem("add", typeItems()...),
				readline.PcItem("drop", typeItems()...),
				readline.PcItem("move"),
				readline.PcItem("select"),
				readline.PcItem("dup"),
				readline.PcItem("rm"),
				readline.PcItem("style"),
				readline.PcItem("set"),
				readline.PcItem("undo"),
				readline.PcItem("redo"),
				readline.PcItem("html"),
				readline.PcItem("save"),
				readline.PcItem("help"),
				readline.PcItem("exit"),
			),
		})
	}
	return &scanReader{scanner: bufio.NewScanner(cmd.InOrStdin())}, nil
}

func typeItems() []readline.PrefixCompleterInterface {
	items := make([]readline.PrefixCompleterInterface, len(pageforge.Types))
	for i, t := range pageforge.Types {
		items[i] = readline.PcItem(string(t))
	}
	return items
}

type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) Readline() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) Close() error { return nil }

// fileSaver persists session content to a file.
type fileSaver struct {
	path string
}

func (f fileSaver) SaveContent(_ context.Context, _ string, content string) error {
	return os.WriteFile(f.path, []byte(content+"\n"), 0o644)
}

type shell struct {
	path     string
	out      io.Writer
	session  *editor.Session
	renderer *render.Renderer
}

func newShell(path string, out io.Writer) (*shell, error) {
	sess := editor.NewSession(path, nil,
		editor.WithSaver(fileSaver{path: path}),
		editor.WithHistoryLimit(cfg.Editor.GetHistoryLimit()),
		editor.WithLogger(logger),
	)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(out, "new page %s\n", path)
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := sess.Load(string(data)); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "loaded %s (%d elements)\n", path, pageforge.Count(sess.Elements()))
	}
	return &shell{
		path:     path,
		out:      out,
		session:  sess,
		renderer: render.New(render.WithLogger(logger)),
	}, nil
}

// exec runs one shell command line.
func (sh *shell) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]
	sess := sh.session

	switch name {
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
		return nil

	case "exit", "quit":
		return errExit

	case "tree", "ls":
		sh.printTree()
		return nil

	case "add":
		if err := need(args, 1, "add <type> [container]"); err != nil {
			return err
		}
		container := ""
		if len(args) > 1 {
			id, err := sh.resolve(args[1])
			if err != nil {
				return err
			}
			container = id
		}
		e, err := sess.AddTemplate(pageforge.ElementType(args[0]), container)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "added %s %s\n", e.Type, short(e.ID))
		return nil

	case "drop":
		if err := need(args, 2, "drop <type> <canvas|id>"); err != nil {
			return err
		}
		tpl, ok := pageforge.TemplateFor(pageforge.ElementType(args[0]))
		if !ok {
			return fmt.Errorf("unknown element type %q", args[0])
		}
		return sh.drag(editor.FromTemplate(tpl), args[1])

	case "move":
		if err := need(args, 2, "move <id> <canvas|id>"); err != nil {
			return err
		}
		id, err := sh.resolve(args[0])
		if err != nil {
			return err
		}
		return sh.drag(editor.FromElement(id), args[1])

	case "select", "dup", "rm":
		if err := need(args, 1, name+" <id>"); err != nil {
			return err
		}
		id, err := sh.resolve(args[0])
		if err != nil {
			return err
		}
		switch name {
		case "select":
			return sess.Select(id)
		case "dup":
			e, err := sess.Duplicate(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "duplicated as %s\n", short(e.ID))
			return nil
		}
		return sess.Delete(id)

	case "style":
		if err := need(args, 2, "style <id> <property> [value]"); err != nil {
			return err
		}
		id, err := sh.resolve(args[0])
		if err != nil {
			return err
		}
		return sess.StyleChange(id, args[1], strings.Join(args[2:], " "))

	case "set":
		if err := need(args, 3, "set <id> <property> <value>"); err != nil {
			return err
		}
		id, err := sh.resolve(args[0])
		if err != nil {
			return err
		}
		return sess.PropertyChange(id, args[1], strings.Join(args[2:], " "))

	case "undo", "redo":
		changed := sess.Undo
		if name == "redo" {
			changed = sess.Redo
		}
		if !changed() {
			fmt.Fprintf(sh.out, "nothing to %s\n", name)
		}
		return nil

	case "html":
		fmt.Fprintln(sh.out, sh.renderer.Render(sess.Elements()))
		return nil

	case "save":
		if err := sess.Save(context.Background()); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "saved %s\n", sh.path)
		return nil
	}
	return fmt.Errorf("unknown command %q (try help)", name)
}

func (sh *shell) drag(src editor.DragSource, target string) error {
	sess := sh.session
	if err := sess.DragStart(src); err != nil {
		return err
	}
	drop := editor.Canvas()
	if target != "canvas" {
		id, err := sh.resolve(target)
		if err != nil {
			sess.DragCancel()
			return err
		}
		drop = editor.OnElement(id)
	}
	if err := sess.DragOver(drop); err != nil {
		sess.DragCancel()
		return err
	}
	return sess.DragEnd(drop)
}

// resolve expands a unique id prefix to the full element id.
func (sh *shell) resolve(prefix string) (string, error) {
	var matches []string
	for _, id := range pageforge.IDs(sh.session.Elements()) {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", &pageforge.NotFoundError{Op: "lookup", ID: prefix}
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", prefix, len(matches))
}

func (sh *shell) printTree() {
	forest := sh.session.Elements()
	if len(forest) == 0 {
		fmt.Fprintln(sh.out, "(empty page)")
		return
	}
	selected := sh.session.Selected()
	var walk func(list []*pageforge.Element, depth int)
	walk = func(list []*pageforge.Element, depth int) {
		for _, e := range list {
			mark := " "
			if e.ID == selected {
				mark = "*"
			}
			line := fmt.Sprintf("%s %s%-8s %s", mark, strings.Repeat("  ", depth), short(e.ID), e.Type)
			if e.Content != "" {
				line += fmt.Sprintf(" %q", preview(e.Content))
			}
			fmt.Fprintln(sh.out, line)
			walk(e.Children, depth+1)
		}
	}
	walk(forest, 0)
}

func need(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func preview(s string) string {
	const limit = 40
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
