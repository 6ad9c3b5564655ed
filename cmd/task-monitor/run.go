package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	logrusr "github.com/bombsimon/logrusr/v3"
	"github.com/go-logr/logr"
	"github.com/konveyor/task-monitor/dispatcher"
	"github.com/konveyor/task-monitor/monitor"
	"github.com/konveyor/task-monitor/tracing"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

func newLogger() logr.Logger {
	logrusLog := logrus.New()
	logrusLog.SetOutput(os.Stderr)
	if progressFormat == "tui" {
		// the tui owns the terminal
		logrusLog.SetOutput(io.Discard)
	}
	logrusLog.SetFormatter(&logrus.TextFormatter{})
	// Adding 5 here to move logs to info level
	// setting verbose 1 -> V(2) logs show up
	// setting verbose 2 -> V(3) logs show up
	logrusLog.SetLevel(logrus.Level(logLevel + 5))
	return logrusr.New(logrusLog)
}

func run(ctx context.Context, config monitor.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := newLogger()

	tp, err := tracing.InitTracerProvider(log, tracing.Options{
		EnableJaeger:   enableJaeger,
		JaegerEndpoint: jaegerEndpoint,
	})
	if err != nil {
		return err
	}
	defer tracing.Shutdown(context.Background(), log, tp)

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	d := dispatcher.New(dispatcher.WithLogger(log.WithName("dispatcher")))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.Run(gctx)
	})

	var ui frontend
	if progressFormat == "tui" {
		ui, err = newTUIFrontend(ctx, log)
	} else {
		ui, err = newReporterFrontend(ctx, log)
	}
	if err != nil {
		cancelFunc()
		return errors.Join(err, g.Wait())
	}

	opts := append(config.ToOptions(),
		monitor.WithDisplay(ui.display()),
		monitor.WithPrompter(ui.prompter()),
		monitor.WithLogger(log),
	)
	m, err := monitor.New(d, config.Task(), opts...)
	if err != nil {
		ui.abort()
		cancelFunc()
		return errors.Join(err, g.Wait())
	}
	ui.start(g, m)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	g.Go(func() error {
		for {
			select {
			case <-sigs:
				m.CancelPressed()
			case <-gctx.Done():
				return nil
			}
		}
	})

	workErr := make(chan error, 1)
	go func() {
		workCtx, span := tracing.StartNewSpan(gctx, "task.run",
			attribute.String("monitor.id", m.ID()),
			attribute.Int("task.steps", steps),
		)
		defer span.End()
		err := simulateWork(workCtx, m, steps, stepInterval)
		m.TaskProcessed()
		workErr <- err
	}()

	if err := m.Show(gctx, config.Delay); err != nil {
		log.Error(err, "unable to show task monitor")
	}
	taskErr := <-workErr
	result := outcome(taskErr)
	log.V(3).Info("task finished", "outcome", result, "progress", m.Progress(), "maximum", m.Maximum())

	m.Dispose()
	// wait for the close posted by Dispose to reach the display
	if err := d.RunNow(gctx, func(context.Context) {}); err != nil {
		log.V(5).Info("dispatcher stopped before the display closed", "reason", err.Error())
	}
	ui.finish(m, result)

	cancelFunc()
	if err := g.Wait(); err != nil {
		return err
	}
	if taskErr != nil && result != outcomeCancelled {
		return fmt.Errorf("task %q %s", config.Title, result)
	}
	return nil
}
