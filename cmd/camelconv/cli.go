package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/i2y/camelconv/configs"
	"github.com/i2y/camelconv/internal/adapter/outbound/artifacts"
	"github.com/i2y/camelconv/internal/adapter/outbound/camelxml"
	"github.com/i2y/camelconv/internal/adapter/outbound/fsstore"
	"github.com/i2y/camelconv/internal/adapter/outbound/github"
	"github.com/i2y/camelconv/internal/adapter/outbound/openapi"
	"github.com/i2y/camelconv/internal/adapter/outbound/source"
	"github.com/i2y/camelconv/internal/domain"
	"github.com/i2y/camelconv/internal/usecase"
)

// errRecovered marks a run that produced output but dropped routes or steps.
var errRecovered = errors.New("conversion finished with recoverable errors")

// options are the flags shared by every subcommand. Their defaults come from
// the loaded configuration.
type options struct {
	outDir          string
	namespace       string
	onMissingSource string
	format          string
	skeletonPackage string
	toStdout        bool
}

type app struct {
	cfg    *configs.Config
	opts   options
	stdout io.Writer
	stderr io.Writer

	logger    *slog.Logger
	closers   []io.Closer
	shutdowns []func(context.Context) error
}

func newApp(cfg *configs.Config, stdout, stderr io.Writer) *app {
	return &app{
		cfg:    cfg,
		stdout: stdout,
		stderr: stderr,
		opts: options{
			outDir:          cfg.OutputDir,
			namespace:       cfg.Namespace,
			onMissingSource: cfg.OnMissingSource,
			format:          cfg.OpenAPIFormat,
			skeletonPackage: cfg.SkeletonPackage,
		},
	}
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "camelconv",
		Short:         "Convert Apache Camel Spring-XML routes to Java DSL, JSON and OpenAPI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context(), cmd.Name() == "serve" && serveTransport(cmd) == transportStdio)
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVarP(&a.opts.outDir, "out-dir", "o", a.opts.outDir, "directory the artifacts are written to")
	fs.StringVar(&a.opts.namespace, "namespace", a.opts.namespace, "Camel XML namespace URI")
	fs.StringVar(&a.opts.onMissingSource, "on-missing-source", a.opts.onMissingSource, "what to do with a route without <from>: skip or abort")
	fs.StringVar(&a.opts.format, "format", a.opts.format, "OpenAPI output format: yaml or json")
	fs.StringVar(&a.opts.skeletonPackage, "package", a.opts.skeletonPackage, "base Java package of the controller skeleton")
	fs.BoolVar(&a.opts.toStdout, "stdout", false, "print artifacts instead of writing files")

	cmd.AddCommand(
		a.newConvertCmd(usecase.TargetJava, "Render routes as a Java DSL RouteBuilder class"),
		a.newConvertCmd(usecase.TargetJSON, "Render the parsed routes as JSON"),
		a.newConvertCmd(usecase.TargetMapped, "Render the Spring-Boot step mapping as JSON"),
		a.newConvertCmd(usecase.TargetOpenAPI, "Render an OpenAPI 3.0 document for the route endpoints"),
		a.newConvertCmd(usecase.TargetAll, "Render every artifact, including the controller skeleton"),
		a.newSkeletonCmd(),
		a.newServeCmd(),
	)
	return cmd
}

// init sets up logging and telemetry once the command line is parsed.
func (a *app) init(ctx context.Context, stdio bool) error {
	logger, closer := newLogger(a.cfg, stdio, a.stderr)
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	a.logger = logger
	slog.SetDefault(logger)

	shutdown, err := initOtelProvider(ctx, a.cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.shutdowns = append(a.shutdowns, shutdown)
	return nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	for _, shutdown := range a.shutdowns {
		if err := shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Error("Failed to shutdown OpenTelemetry providers.", slog.Any("error", err))
		}
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func (a *app) newConvertCmd(target usecase.Target, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(target) + " <source>",
		Short: short,
		Long: short + ".\n\n<source> is a local path, an http(s) URL or github://owner/repo/path[@ref].",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd.Context(), usecase.ConvertRequest{Source: args[0], Targets: []usecase.Target{target}})
		},
	}
}

func (a *app) newSkeletonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skeleton",
		Short: "Write the Spring controller and service skeleton",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd.Context(), usecase.ConvertRequest{Targets: []usecase.Target{usecase.TargetSkeleton}})
		},
	}
}

// parser builds the route parser from the effective options.
func (a *app) parser() (*camelxml.Parser, error) {
	policy, err := domain.ParseMissingSourcePolicy(a.opts.onMissingSource)
	if err != nil {
		return nil, err
	}
	return camelxml.NewParser(a.logger,
		camelxml.WithNamespace(a.opts.namespace),
		camelxml.WithMissingSourcePolicy(policy),
	), nil
}

// renderer builds the artifact renderer from the effective options.
func (a *app) renderer() (*artifacts.Renderer, error) {
	format, err := openapi.ParseFormat(a.opts.format)
	if err != nil {
		return nil, err
	}
	oa := openapi.NewRenderer(a.cfg.OpenAPITitle, a.cfg.OpenAPIVersion, a.logger)
	return artifacts.NewRenderer(oa, format, a.opts.skeletonPackage, a.logger), nil
}

func (a *app) documentSource() *source.Fetcher {
	httpClient := &http.Client{Timeout: a.cfg.HTTPClientTimeout}
	return source.NewFetcher(httpClient, github.NewFetcher(nil, a.logger), a.logger)
}

// newConvertUseCase wires the use case. A nil store keeps the artifacts in
// the report only.
func (a *app) newConvertUseCase(store usecase.ArtifactStore) (*usecase.ConvertUseCase, error) {
	parser, err := a.parser()
	if err != nil {
		return nil, err
	}
	renderer, err := a.renderer()
	if err != nil {
		return nil, err
	}
	return usecase.NewConvertUseCase(a.documentSource(), parser, renderer, store, a.logger)
}

func (a *app) convert(ctx context.Context, req usecase.ConvertRequest) error {
	var (
		store   usecase.ArtifactStore
		fsStore *fsstore.Store
	)
	if !a.opts.toStdout {
		fsStore = fsstore.NewStore(a.opts.outDir, a.logger)
		store = fsStore
	}

	uc, err := a.newConvertUseCase(store)
	if err != nil {
		return err
	}

	report, err := uc.Execute(ctx, req)
	if err != nil {
		return err
	}

	for _, artifact := range report.Rendered {
		if a.opts.toStdout {
			_, _ = a.stdout.Write(artifact.Content)
			continue
		}
		fmt.Fprintf(a.stdout, "wrote %s\n", filepath.Join(fsStore.Dir(), artifact.Name))
	}

	if report.Recovered() {
		for _, f := range report.Failures {
			fmt.Fprintf(a.stderr, "warning: %s\n", f)
		}
		for _, u := range report.Unknown {
			fmt.Fprintf(a.stderr, "warning: unknown element %s\n", u)
		}
		return errRecovered
	}
	for _, u := range report.Unknown {
		fmt.Fprintf(a.stderr, "note: unknown element %s\n", u)
	}
	return nil
}
