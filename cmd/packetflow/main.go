// Command packetflow runs a packet-processing graph described in YAML over
// lines read from stdin, writing every sink to stdout.
//
//	packetflow --graph graph.yml < input.txt
//	packetflow validate --graph graph.yml
//	packetflow version
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/kbukum/packetflow/bootstrap"
	"github.com/kbukum/packetflow/config"
	"github.com/kbukum/packetflow/graph"
	"github.com/kbukum/packetflow/link"
	"github.com/kbukum/packetflow/logger"
	"github.com/kbukum/packetflow/observability"
	"github.com/kbukum/packetflow/scheduler"
	"github.com/kbukum/packetflow/status"
	"github.com/kbukum/packetflow/version"
)

const serviceName = "packetflow"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "packetflow:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	command := "run"
	if len(args) > 0 && (args[0] == "run" || args[0] == "validate" || args[0] == "version") {
		command, args = args[0], args[1:]
	}
	if command == "version" {
		_, err := fmt.Fprintln(stdout, version.Get().String())
		return err
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	configFile, _ := fs.GetString("config")
	cfg, err := config.Load(serviceName, config.WithConfigFile(configFile), config.WithFlags(fs))
	if err != nil {
		return err
	}

	def, err := loadGraph(cfg)
	if err != nil {
		return err
	}
	if command == "validate" {
		if err := graph.Validate(def); err != nil {
			return err
		}
		_, err := fmt.Fprintf(stdout, "graph %s: %d stages ok\n", def.Name, len(def.Stages))
		return err
	}
	return serve(ctx, cfg, def, stdin, stdout)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.String("config", "", "path to config.yml")
	fs.String("graph.file", "", "path to the graph definition")
	fs.Int("runtime.queue_capacity", config.DefaultQueueCapacity, "default stage queue capacity")
	fs.Bool("status.enabled", false, "serve /healthz and /stats")
	fs.String("status.addr", ":8080", "status listen address")
	fs.Bool("telemetry.enabled", false, "export OTLP metrics and traces")
	return fs
}

func loadGraph(cfg *config.RuntimeConfig) (*graph.Definition, error) {
	if cfg.Graph.File != "" {
		return graph.Load(cfg.Graph.File)
	}
	return graph.Find("graph", "./cmd/"+serviceName, "./config", ".")
}

func serve(ctx context.Context, cfg *config.RuntimeConfig, def *graph.Definition, stdin io.Reader, stdout io.Writer) error {
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	stats := observability.NewStats()
	observers := []observability.Observer{stats}
	if cfg.Telemetry.Enabled {
		tel, err := bootstrap.NewTelemetry(cfg.Telemetry, cfg.ServiceConfig)
		if err != nil {
			return err
		}
		if err := app.RegisterComponent(tel); err != nil {
			return err
		}
		observers = append(observers, tel.Observer())
	}

	reader := newLineReader(stdin, def.Sources, cfg.Runtime.QueueCapacity)
	asm, err := graph.Assemble(def, builtins(), reader.Sources(),
		graph.WithRuntime(cfg.Runtime),
		graph.WithObserver(observability.Tee(observers...)),
		graph.WithLogger(logger.Get("graph")),
	)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(asm.Sinks))
	for name := range asm.Sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	sinks, err := sinkRunnables(asm.Sinks, names, &lineWriter{out: stdout, prefix: len(names) > 1})
	if err != nil {
		return err
	}

	runnables := append([]*link.Runnable{reader.Runnable()}, asm.Runnables...)
	runnables = append(runnables, sinks...)
	sched := scheduler.New(
		scheduler.WithLogger(logger.Get("scheduler")),
		scheduler.WithTracing(cfg.Telemetry.Enabled),
	)
	pipeline := scheduler.NewPipeline(def.Name, sched, runnables...)
	if err := app.RegisterComponent(pipeline); err != nil {
		return err
	}
	if cfg.Status.Enabled {
		srv := status.New(cfg.Status, status.Sources{
			Service: cfg.Name,
			Health:  app.Components,
			Stats:   stats,
		})
		if err := app.RegisterComponent(srv); err != nil {
			return err
		}
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		select {
		case <-pipeline.Done():
			return pipeline.Wait()
		case <-ctx.Done():
			app.Logger.Info("pipeline interrupted", logger.Fields(logger.FieldRunID, pipeline.RunID()))
			return nil
		}
	})
}
