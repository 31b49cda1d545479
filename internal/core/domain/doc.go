// Package domain defines the core business entities for unima.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Source: A node of a module's ingested content tree
//   - ResourceInfo: The downloadable-file facet of a Source
//   - TagData: Cached classification output for a Source
//   - Module / ModuleVessel: Course and semester metadata
//   - DetectedModule / DetectedVessel: Staging records awaiting confirmation
//   - StructureInfo: A resource with resolved tags and derived path
//
// It also carries the payload types returned by the remote course web
// service, so that connectors and services share one vocabulary.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
