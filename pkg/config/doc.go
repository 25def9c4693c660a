// Package config defines the gateway's YAML configuration and its loader.
package config
