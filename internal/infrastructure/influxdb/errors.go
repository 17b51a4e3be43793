package influxdb

import "errors"

var (
	// ErrNotConnected is returned by HealthCheck before Connect or after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed wraps a failed ping during Connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed wraps batch write failures passed to the SetOnError
	// callback. Resolution telemetry is never written synchronously.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled is returned by Connect when influxdb.enabled is false, so
	// the profiler runs without telemetry.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
