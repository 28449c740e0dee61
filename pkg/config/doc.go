// Package config loads the immutable configuration snapshot a
// tinymux process starts from: a YAML file merged with CLI flag
// overrides, following the Config-struct-of-plain-fields shape the
// teacher's pkg/manager.Config uses, loaded with
// gopkg.in/yaml.v3 rather than hand-parsed flags.
package config
