package main

import (
	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-profiler/internal/api"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API and ingest evidence from MQTT until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, load, appOptions{mqtt: true, influx: true})
			if err != nil {
				return err
			}
			defer a.close()

			resolver, err := a.newResolver()
			if err != nil {
				return err
			}

			if a.mqtt != nil {
				ingestor := evidence.NewMQTTIngestor(a.mqtt, evidence.DefaultAdapter(), a.evidence, byte(a.cfg.MQTT.QoS))
				ingestor.SetLogger(a.log.With("component", "ingest"))
				if err := ingestor.Start(); err != nil {
					return err
				}
				defer func() {
					if stopErr := ingestor.Stop(); stopErr != nil {
						a.log.Error("error stopping evidence ingestion", "error", stopErr)
					}
				}()
				a.log.Info("evidence ingestion started")
			} else {
				a.log.Info("MQTT disabled, evidence ingestion off")
			}

			srv, err := api.New(api.Deps{
				Config:   a.cfg.API,
				Logger:   a.log.With("component", "api"),
				Store:    a.profiles,
				Resolver: resolver,
				Sinks:    a.sinks(),
				Batch:    a.batchConfig(),
				Version:  version,
			})
			if err != nil {
				return err
			}
			if err := srv.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if closeErr := srv.Close(); closeErr != nil {
					a.log.Error("error closing API server", "error", closeErr)
				}
			}()

			a.log.Info("Gray Logic Profiler started", "api_port", a.cfg.API.Port)
			<-ctx.Done()
			a.log.Info("shutdown signal received")
			return nil
		},
	}
}
