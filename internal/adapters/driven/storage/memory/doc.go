// Package memory provides in-memory implementations of the storage ports.
// They back service tests; production uses the sqlite adapter.
package memory
