// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SourceStore, ResourceStore, TagStore: content tree and cached tags
//   - ModuleStore: configured modules and vessels
//   - DetectedStore: staging area filled by course detection
//   - ContentStore: transactional writes used by ingestion
//   - CourseAPI: the remote course web service
//   - Downloader: fetches remote files to disk
//   - ConfigStore: application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
