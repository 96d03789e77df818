package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/norasector/turbine-p25/pkg/turbine"
	"github.com/norasector/turbine-p25/pkg/turbine/config"
	"github.com/norasector/turbine-p25/pkg/turbine/device/file"
	"github.com/norasector/turbine-p25/pkg/turbine/output"
	"github.com/norasector/turbine-p25/pkg/util"
	"golang.org/x/sync/errgroup"
)

func main() {
	configFile := pflag.StringP("config", "c", "p25.yaml", "YAML config file")
	logLevel := pflag.StringP("log-level", "l", "info", "log level (trace, debug, info, warn, error)")
	pflag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		pflag.Usage()
		os.Exit(1)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	opts, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configFile).Msg("error loading config")
	}

	inputs := make([]turbine.Input, 0, len(opts.Channels))
	for _, ch := range opts.Channels {
		dev, err := file.NewFileDevice(ch.Input, file.Format(ch.Format), opts.ReadSize, ch.SymbolRate, ch.Frequency, opts.ReadDelay)
		if err != nil {
			log.Fatal().Err(err).Int("channel", ch.ID).Str("input", ch.Input).Msg("failed to open input")
		}
		inputs = append(inputs, turbine.Input{Channel: ch, Device: dev})
	}

	turbineOpts := []turbine.TurbineOption{turbine.WithLogger(log.Logger)}

	var outputs []turbine.MessageOutput
	if opts.TextOutput {
		outputs = append(outputs, output.NewTextOutput(os.Stdout))
	}

	if opts.InfluxDB.Host != "" {
		client := influxdb2.NewClient(opts.InfluxDB.Host, "")
		defer client.Close()
		influxWriteAPI := client.WriteAPI(opts.InfluxDB.Organization, opts.InfluxDB.Bucket)
		turbineOpts = append(turbineOpts, turbine.WithInfluxDB(influxWriteAPI))
		if len(opts.OutputDestinations) > 0 {
			outputs = append(outputs, output.NewMessageUDPOutput(opts.OutputDestinations, influxWriteAPI))
		}
	} else if len(opts.OutputDestinations) > 0 {
		outputs = append(outputs, output.NewMessageUDPOutput(opts.OutputDestinations, util.NopWriteAPI{}))
	}

	if opts.StatusServer.Port > 0 {
		turbineOpts = append(turbineOpts, turbine.WithStatusServer(opts.StatusServer.Port))
	}

	t, err := turbine.NewTurbine(turbine.Options{
		Inputs:  inputs,
		AGC:     opts.AGC,
		Outputs: outputs,
	}, turbineOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create decoder")
	}

	eg, ctx := errgroup.WithContext(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {

		select {
		case <-sigChan:
		case <-ctx.Done():
		}

		return t.Stop()
	})

	eg.Go(func() error {
		err := t.Start(ctx)
		if err == nil {
			// inputs exhausted; release the signal watcher
			return context.Canceled
		}
		return err
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("exited program")
	}
}
