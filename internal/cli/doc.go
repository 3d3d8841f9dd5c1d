// Package cli implements the bugfinder command line: checking snippet files
// offline against the same pipeline the service runs, and listing tips.
package cli
