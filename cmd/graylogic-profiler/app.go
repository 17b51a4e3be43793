package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
	"github.com/nerrad567/gray-logic-profiler/internal/fingerprint"
	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-profiler/internal/profile"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
)

// configLoader loads the configuration selected by the root flags.
type configLoader func() (*config.Config, error)

// app holds the opened infrastructure shared by the commands.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	db       *database.DB
	evidence *evidence.SQLiteRepository
	profiles *profile.SQLiteStore
	mqtt     *mqtt.Client    // nil when disabled
	influx   *influxdb.Client // nil when disabled

	closers []func()
}

// appOptions selects the optional connections a command needs.
type appOptions struct {
	mqtt   bool
	influx bool
}

// openApp loads config, opens and migrates the database, and connects the
// optional services. Call close on every return path once it succeeds.
func openApp(ctx context.Context, load configLoader, opts appOptions) (*app, error) {
	log := logging.Default()
	log.Info("starting Gray Logic Profiler",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := load()
	if err != nil {
		return nil, err
	}

	log = logging.New(cfg.Logging, version)
	a := &app{cfg: cfg, log: log}

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	a.onClose(func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	})

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		a.close()
		return nil, fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Debug("database ready", "path", cfg.Database.Path)

	a.evidence = evidence.NewSQLiteRepository(db.DB)
	a.profiles = profile.NewSQLiteStore(db.DB)

	if opts.mqtt && cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		client.SetLogger(log)
		client.SetOnConnect(func() { log.Info("MQTT reconnected") })
		client.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		a.mqtt = client
		a.onClose(func() {
			log.Info("disconnecting from MQTT")
			if closeErr := client.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	if opts.influx && cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		client.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		a.influx = client
		a.onClose(func() {
			log.Info("closing InfluxDB connection")
			if closeErr := client.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	return a, nil
}

func (a *app) onClose(f func()) {
	a.closers = append(a.closers, f)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newResolver loads the rule table and the scoring calibration. A rule
// table that cannot be loaded is fatal: no device is resolved without it.
func (a *app) newResolver() (*profile.Resolver, error) {
	table, err := fingerprint.LoadTable(a.cfg.Resolver.RulesFile)
	if err != nil {
		return nil, err
	}
	a.log.Info("rule table loaded",
		"path", a.cfg.Resolver.RulesFile,
		"rules", table.Len(),
		"version", table.Version(),
	)

	sc, err := scoring.FromConfig(a.cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("scoring calibration: %w", err)
	}
	engine, err := scoring.NewEngine(sc)
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}

	r := profile.NewResolver(a.evidence, table, engine)
	r.SetLogger(a.log.With("component", "resolver"))
	return r, nil
}

// sinks returns the profile sinks enabled by configuration. The SQLite
// store is always first.
func (a *app) sinks() []profile.Sink {
	out := []profile.Sink{a.profiles}
	if a.mqtt != nil && a.cfg.Resolver.Publish {
		out = append(out, profile.NewMQTTPublisher(a.mqtt, byte(a.cfg.MQTT.QoS)))
	}
	if a.influx != nil {
		out = append(out, profile.NewMetricsRecorder(a.influx))
	}
	return out
}

// batchConfig maps the resolver section onto a batch configuration.
func (a *app) batchConfig() profile.BatchConfig {
	return profile.BatchConfig{
		Workers:       a.cfg.Resolver.Workers,
		DeviceTimeout: a.cfg.GetDeviceTimeout(),
	}
}
