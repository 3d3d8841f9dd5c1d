// Package server wires configuration, the analysis pipeline, providers and
// HTTP routes into a runnable service.
package server
