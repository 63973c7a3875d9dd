/*
Package config provides typed configuration extraction for notifier
registries and dispatch queues.

# Overview

Config wraps a map[string]any and exposes accessors that fall back to a
default when a key is missing or holds the wrong type. Nested sections are
reached with Sub, which is how the registry and queue settings are kept
apart in one file:

	registry:
	  name: settings
	  metrics: true
	  tracing: false
	  log_level: debug
	queue:
	  name: ui
	  close_timeout: 5s
	  initial_capacity: 64

# Loading

	cfg, err := config.FromFile("notifier.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	reg := notifier.New[Event](notifier.OptionsFromConfig(cfg.Sub("registry"))...)
	q := dispatch.NewQueue(dispatch.QueueConfigFromConfig(cfg.Sub("queue")))

YAML is decoded with gopkg.in/yaml.v3; JSON with encoding/json.

# Thread Safety

Config is safe for concurrent reads. The underlying map is never modified
after creation.
*/
package config
