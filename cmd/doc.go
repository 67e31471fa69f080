// Package cmd implements the command-line interface of aKV. It opens a local
// store from flags, environment variables (prefix AKV_) and .env files and runs
// a single operation against it.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (put, get, del, has, flush, info, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Values are strings, keys are signed 64-bit integers. See akv -help for a list of all commands.
package cmd
