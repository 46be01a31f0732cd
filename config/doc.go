// Package config assembles the engine configuration from a YAML file,
// a .env file, and VOICEID_* environment variables, in that order of
// precedence (environment wins). Every section carries its own
// defaults, so an empty file yields a working local setup.
package config
