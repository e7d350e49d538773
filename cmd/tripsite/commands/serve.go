package commands

import (
	"context"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/tripsite/internal/metrics"
	"git.home.luguber.info/inful/tripsite/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr     string `short:"a" help:"Override serve.addr"`
	NoWatch  bool   `name:"no-watch" help:"Do not rebuild when sources change"`
	Schedule string `help:"Cron expression for periodic rebuilds (overrides serve.rebuild_schedule)"`
}

func (s *ServeCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	builder, err := root.NewBuilder()
	if err != nil {
		return err
	}
	cfg := builder.Config()
	if s.NoWatch {
		off := false
		cfg.Serve.Watch = &off
	}
	if s.Schedule != "" {
		cfg.Serve.RebuildSchedule = s.Schedule
	}

	reg := prom.NewRegistry()
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)
	builder.Recorder = recorder

	opts := server.OptionsFromConfig(cfg)
	if s.Addr != "" {
		opts.Addr = s.Addr
	}
	opts.Registry = reg
	opts.Recorder = recorder
	opts.Logger = slog.Default()
	return server.New(builder, builder.Paths(), opts).Run(ctx)
}
