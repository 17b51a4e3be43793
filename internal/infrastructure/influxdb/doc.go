// Package influxdb records resolution telemetry in InfluxDB v2.
//
// Two measurements are written:
//
//   - profile_resolution: one point per resolved device (score, status,
//     evidence counts), tagged by vendor, product, status and rule
//   - batch_run: one point per batch (resolved, failed, duration)
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteRun(influxdb.RunPoint{RunID: id, Resolved: 42})
//
// Writes are batched and never block the resolver. Batch failures reach
// the SetOnError callback wrapped in ErrWriteFailed.
package influxdb
