// Package config holds the clamscan command-line configuration: defaults,
// validation, the optional YAML configuration file and the conversion into
// clamd and dirscan configurations.
package config
