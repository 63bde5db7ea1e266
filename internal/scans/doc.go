// Package scans manages the network scan folder that document scanners
// drop their output into.
//
// List reports what is waiting in the folder. Janitor deletes scans that
// have outlived the configured lifetime; only regular files directly inside
// the folder are considered, subdirectories are left alone.
package scans
