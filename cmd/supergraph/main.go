package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	abstractlogger "github.com/jensneuse/abstractlogger"
	"go.uber.org/zap"

	composition "github.com/hanpama/supergraph/internal/composition"
	eventbus "github.com/hanpama/supergraph/internal/eventbus"
	events "github.com/hanpama/supergraph/internal/events"
	language "github.com/hanpama/supergraph/internal/language"
	otel "github.com/hanpama/supergraph/internal/otel"
	planning "github.com/hanpama/supergraph/internal/planning"
	server "github.com/hanpama/supergraph/internal/server"
)

const rootUsage = `supergraph — federated GraphQL composition & planning tools

USAGE:
  supergraph <command> [flags]

COMMANDS:
  compose          Merge subgraph schemas into a supergraph SDL
  plan             Compose and print the field-set plan for an operation
  serve            Run the HTTP planning service over a composed supergraph
  help             Show help for any command
`

const composeUsage = `compose FLAGS:
  -subgraph <name>=<url>=<file>  Subgraph schema to merge. Repeatable; at
                                 least one required. Merge order follows
                                 flag order.
  -out <file>                    Write supergraph SDL to file (default: stdout)
  -hints                         Print composition hints to stderr
`

const planUsage = `plan FLAGS:
  -subgraph <name>=<url>=<file>  Subgraph schema to merge. Repeatable; at
                                 least one required.
  -query <file>                  Operation document to plan (required)
  -operation <name>              Operation name when the document has several
  -pretty                        Pretty-print the JSON plan
`

const serveUsage = `serve FLAGS:
  -subgraph <name>=<url>=<file>  Subgraph schema to merge. Repeatable; at
                                 least one required.
  -server.addr <addr>            HTTP listen address (default: :8080)
  -server.pretty                 Pretty-print JSON responses
  -server.timeout <duration>     Per-request timeout, e.g. 10s (default: 10s)
  -otel.endpoint <addr>          OTLP collector endpoint
  -otel.service <name>           OpenTelemetry service name (default: supergraph)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("supergraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "compose":
		return cmdCompose(cmdArgs)
	case "plan":
		return cmdPlan(cmdArgs)
	case "serve":
		return cmdServe(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "compose":
		fmt.Print(composeUsage)
	case "plan":
		fmt.Print(planUsage)
	case "serve":
		fmt.Print(serveUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// subgraphFlag accumulates repeatable -subgraph name=url=file values in
// flag order.
type subgraphFlag struct {
	entries []subgraphEntry
}

type subgraphEntry struct {
	name, url, file string
}

func (f *subgraphFlag) String() string { return "" }

func (f *subgraphFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 3)
	if len(parts) != 3 {
		return fmt.Errorf("invalid subgraph %q, want name=url=file", v)
	}
	name := strings.TrimSpace(parts[0])
	url := strings.TrimSpace(parts[1])
	file := strings.TrimSpace(parts[2])
	if name == "" || file == "" {
		return fmt.Errorf("invalid subgraph %q, want name=url=file", v)
	}
	f.entries = append(f.entries, subgraphEntry{name: name, url: url, file: file})
	return nil
}

func (f *subgraphFlag) load() ([]*composition.Subgraph, error) {
	if len(f.entries) == 0 {
		return nil, fmt.Errorf("at least one -subgraph is required")
	}
	out := make([]*composition.Subgraph, len(f.entries))
	for i, e := range f.entries {
		sdl, err := os.ReadFile(e.file)
		if err != nil {
			return nil, err
		}
		sg, err := composition.NewSubgraph(e.name, e.url, string(sdl))
		if err != nil {
			return nil, err
		}
		out[i] = sg
	}
	return out, nil
}

func compose(subgraphs []*composition.Subgraph) (*composition.Result, error) {
	names := make([]string, len(subgraphs))
	for i, sg := range subgraphs {
		names[i] = sg.Name
	}
	start := time.Now()
	eventbus.Publish(context.Background(), events.ComposeStart{Subgraphs: names})
	res, err := composition.Compose(subgraphs)
	finish := events.ComposeFinish{Subgraphs: names, Duration: time.Since(start)}
	if err != nil {
		finish.Errors = []error{err}
	} else {
		finish.Hints = len(res.Hints)
	}
	eventbus.Publish(context.Background(), finish)
	return res, err
}

func cmdCompose(args []string) error {
	var subgraphs subgraphFlag
	outFile := ""
	printHints := false

	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&subgraphs, "subgraph", "Subgraph schema to merge")
	fs.StringVar(&outFile, "out", outFile, "Write supergraph SDL to file")
	fs.BoolVar(&printHints, "hints", printHints, "Print composition hints")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, composeUsage)
		return err
	}

	sgs, err := subgraphs.load()
	if err != nil {
		fmt.Fprint(os.Stderr, composeUsage)
		return err
	}
	res, err := compose(sgs)
	if err != nil {
		return err
	}
	if printHints {
		for _, h := range res.Hints {
			fmt.Fprintf(os.Stderr, "%s: %s\n", h.Code, h.Message)
		}
	}
	if outFile == "" {
		fmt.Print(res.SupergraphSDL)
		return nil
	}
	return os.WriteFile(outFile, []byte(res.SupergraphSDL), 0644)
}

func cmdPlan(args []string) error {
	var subgraphs subgraphFlag
	queryFile := ""
	operationName := ""
	pretty := false

	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&subgraphs, "subgraph", "Subgraph schema to merge")
	fs.StringVar(&queryFile, "query", queryFile, "Operation document to plan")
	fs.StringVar(&operationName, "operation", operationName, "Operation name")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print the JSON plan")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, planUsage)
		return err
	}
	if queryFile == "" {
		fmt.Fprint(os.Stderr, planUsage)
		return fmt.Errorf("-query is required")
	}

	sgs, err := subgraphs.load()
	if err != nil {
		fmt.Fprint(os.Stderr, planUsage)
		return err
	}
	res, err := compose(sgs)
	if err != nil {
		return err
	}

	query, err := os.ReadFile(queryFile)
	if err != nil {
		return err
	}
	doc, err := language.ParseQuery(string(query))
	if err != nil {
		return err
	}
	pctx, err := planning.NewContextFromDocument(res.Schema, doc, operationName)
	if err != nil {
		return err
	}
	fields, err := pctx.RootFieldSet()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(fields)
}

func cmdServe(args []string) error {
	var subgraphs subgraphFlag
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	otelEndpoint := ""
	otelService := "supergraph"

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&subgraphs, "subgraph", "Subgraph schema to merge")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}

	zapLog, err := zap.NewProduction()
	if err != nil {
		return err
	}
	log := abstractlogger.NewZapLogger(zapLog, abstractlogger.InfoLevel)

	sgs, err := subgraphs.load()
	if err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	res, err := compose(sgs)
	if err != nil {
		return err
	}
	log.Info("supergraph composed",
		abstractlogger.Int("subgraphs", len(sgs)),
		abstractlogger.Int("hints", len(res.Hints)),
	)

	var sopts []server.Option
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	sopts = append(sopts, server.WithLogger(log))
	h, err := server.New(res.Schema, res.SupergraphSDL, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", h)

	log.Info("planning server listening", abstractlogger.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}
