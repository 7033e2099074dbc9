package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	component "github.com/hanpama/graphql-component/component"
	"github.com/hanpama/graphql-component/internal/config"
	"github.com/hanpama/graphql-component/internal/eventbus"
	"github.com/hanpama/graphql-component/internal/metrics"
	"github.com/hanpama/graphql-component/internal/otel"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const rootUsage = `graphql-component: compose GraphQL schemas from components

USAGE:
  graphql-component <command> [flags]

COMMANDS:
  compile-sdl      Compose the root component and print its merged schema
  exec             Execute an operation against the root component
  help             Show help for any command
`

const compileSDLUsage = `compile-sdl FLAGS:
  -config <file>   Composition file (required)
  -out <file>      Write the schema to file (default: stdout)
  (Composition always validates; exits non-zero on errors)
`

const execUsage = `exec FLAGS:
  -config <file>          Composition file (required)
  -query <query>          Operation document (required)
  -variables <json>       Variables as a JSON object
  -operation <name>       Operation to execute
  -pretty                 Pretty-print the JSON result
  -metrics                Print Prometheus metrics after the result
  -log.level <level>      Log level (default: warn)
  -otel.endpoint <addr>   OTLP collector endpoint
  -otel.service <name>    OpenTelemetry service name (default: graphql-component)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("graphql-component", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer))
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "compile-sdl":
		return cmdCompileSDL(cmdArgs, stdout, stderr)
	case "exec":
		return cmdExec(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "compile-sdl":
		fmt.Fprint(stdout, compileSDLUsage)
	case "exec":
		fmt.Fprint(stdout, execUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func loadRoot(path string, logger *zap.Logger) (*component.Component, error) {
	f, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	_, root, err := f.Build(logger)
	if err != nil {
		return nil, fmt.Errorf("build components: %w", err)
	}
	return root, nil
}

func cmdCompileSDL(args []string, stdout, stderr io.Writer) error {
	configFile := ""
	outFile := ""
	fs := flag.NewFlagSet("compile-sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configFile, "config", configFile, "Composition file")
	fs.StringVar(&outFile, "out", outFile, "Write the schema to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, compileSDLUsage)
		return err
	}
	if configFile == "" {
		fmt.Fprint(stderr, compileSDLUsage)
		return fmt.Errorf("-config is required")
	}

	root, err := loadRoot(configFile, zap.NewNop())
	if err != nil {
		return err
	}
	s, err := root.Schema()
	if err != nil {
		return fmt.Errorf("compose schema: %w", err)
	}
	sdl := s.SDL()
	if outFile == "" {
		fmt.Fprint(stdout, sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}

func cmdExec(args []string, stdout, stderr io.Writer) error {
	configFile := ""
	query := ""
	variables := ""
	operation := ""
	pretty := false
	printMetrics := false
	logLevel := "warn"
	otelEndpoint := ""
	otelService := "graphql-component"

	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configFile, "config", configFile, "Composition file")
	fs.StringVar(&query, "query", query, "Operation document")
	fs.StringVar(&variables, "variables", variables, "Variables as a JSON object")
	fs.StringVar(&operation, "operation", operation, "Operation to execute")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print the JSON result")
	fs.BoolVar(&printMetrics, "metrics", printMetrics, "Print Prometheus metrics")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, execUsage)
		return err
	}
	if configFile == "" || strings.TrimSpace(query) == "" {
		fmt.Fprint(stderr, execUsage)
		return fmt.Errorf("-config and -query are required")
	}
	var vars map[string]any
	if variables != "" {
		if err := json.Unmarshal([]byte(variables), &vars); err != nil {
			return fmt.Errorf("parse variables: %w", err)
		}
	}

	logger, err := newLogger(logLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	reg := prometheus.NewRegistry()
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	defer m.Subscribe()()

	root, err := loadRoot(configFile, logger)
	if err != nil {
		return err
	}
	res := root.Execute(context.Background(), query,
		component.WithVariables(vars),
		component.WithOperationName(operation))

	var out []byte
	if pretty {
		out, err = json.MarshalIndent(res, "", "  ")
	} else {
		out, err = json.Marshal(res)
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(stdout, string(out))

	if printMetrics {
		families, err := reg.Gather()
		if err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(stdout, mf); err != nil {
				return err
			}
		}
	}
	return nil
}
