// Package common provides the configuration structure and the logging setup
// shared by the aKV library and its command-line interface.
//
// Key Components:
//
//   - StoreConfig: Configuration of a local store (file paths, engine parameters and
//     log level). Converts to birch.Options and renders a sectioned summary.
//
//   - Logger: Custom logging implementation that plugs into the dragonboat logger
//     package. Every package obtains its logger with logger.GetLogger(name),
//     InitLoggers installs the factory and sets the level of all aKV loggers.
package common
