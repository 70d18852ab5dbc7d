// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - UnitStore: Unit persistence (tokens and wire annotations)
//   - CodebookStore: Loads the codebook units are coded with
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AnnotationSink: Receives the exported annotations after every change.
//     Without it, changes are only kept in the unit store.
//   - Normaliser: Turns an imported document into plain text. Units can
//     still be created from fields without any normaliser registered.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or engine package
package driven
