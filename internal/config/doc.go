// Package config holds the tool's configuration: CLI flag values,
// tunable analysis limits, and the save-entry patterns used to locate
// artifacts inside level zips. A single flat Config struct is populated
// by the CLI and handed down via dependency injection.
package config
