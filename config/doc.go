// Package config provides unified configuration loading for PaperFlow:
// defaults, then an optional YAML file, then environment-variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("paperflow.yaml").
//	    WithEnvPrefix("PAPERFLOW").
//	    Load()
package config
