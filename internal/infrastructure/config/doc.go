// Package config handles loading and validating the profiler configuration.
//
// This package manages:
//   - Loading configuration from YAML files over built-in defaults
//   - Overriding with GRAYLOGIC_* environment variables
//   - Validation of required fields and of the scoring calibration
//
// The scoring section is the only tuning surface for evidence weights,
// bonuses, penalties and status thresholds; nothing in the resolver
// hard-codes those numbers.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Resolver.RulesFile)
package config
