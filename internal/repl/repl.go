package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/leengari/birchtree/internal/birch"
	"github.com/leengari/birchtree/internal/query/projection"
)

const help = `Commands:
  grow <table>[, <table> ...]                 show the projection for tables
  select <tables> | <from clause> [| <args>]  run a query and print nested rows
                                              (args is a JSON array)
  tables                                      list cached table schemas
  exit, \q                                    quit`

func Start(ctx context.Context, tree *birch.Tree) {
	fmt.Println("Welcome to birchtree")
	fmt.Println("Type 'help' for commands, 'exit' or '\\q' to quit.")
	Run(ctx, tree, os.Stdin, os.Stdout)
}

// Run reads commands from in until EOF, exit or ctx cancellation
func Run(ctx context.Context, tree *birch.Tree, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	for ctx.Err() == nil {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		if line == "exit" || line == "\\q" {
			break
		}

		command, rest, _ := strings.Cut(line, " ")
		switch strings.ToLower(command) {
		case "help":
			fmt.Fprintln(out, help)
		case "tables":
			PrintTables(out, tree.Projector().Cache())
		case "grow":
			proj, err := tree.Grow(ctx, splitTables(rest)...)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			PrintProjection(out, proj)
		case "select":
			req, err := parseSelect(rest)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			result, err := tree.Select(ctx, req)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			PrintResult(out, result)
		default:
			fmt.Fprintf(out, "Error: unknown command %q (type 'help')\n", command)
		}
	}
}

// parseSelect parses "<tables> | <from clause> [| <json args>]"
func parseSelect(input string) (birch.Request, error) {
	parts := strings.SplitN(input, "|", 3)

	req := birch.Request{Tables: splitTables(parts[0])}
	if len(req.Tables) == 0 {
		return req, fmt.Errorf("no tables given")
	}
	if len(parts) > 1 {
		req.From = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		if err := json.Unmarshal([]byte(parts[2]), &req.Args); err != nil {
			return req, fmt.Errorf("invalid args: %w", err)
		}
	}
	return req, nil
}

func splitTables(input string) []string {
	var tables []string
	for _, t := range strings.Split(input, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}

// PrintProjection prints each expression next to the path it nests under
func PrintProjection(w io.Writer, proj []string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "expression\tpath")
	fmt.Fprintln(tw, "---\t---")
	for _, expr := range proj {
		fmt.Fprintf(tw, "%s\t%s\n", expr, outputPath(expr))
	}
	tw.Flush()
}

func outputPath(expr string) string {
	if _, alias, ok := strings.Cut(expr, " AS "); ok {
		return alias
	}
	if _, column, ok := strings.Cut(expr, "."); ok {
		return column
	}
	return expr
}

func PrintResult(w io.Writer, res *birch.Result) {
	out, err := json.MarshalIndent(res.Rows, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(out))
	fmt.Fprintf(w, "(%d rows, request %s)\n", len(res.Rows), res.RequestID)
}

func PrintTables(w io.Writer, cache *projection.SchemaCache) {
	names := cache.Names()
	if len(names) == 0 {
		fmt.Fprintln(w, "No cached tables")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range names {
		columns, _ := cache.Get(name)
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(columns, ", "))
	}
	tw.Flush()
}
