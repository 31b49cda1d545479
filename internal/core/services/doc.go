// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend on ports only; storage, the course web service and
// the filesystem layout are injected by the caller.
package services
