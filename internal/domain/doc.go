// Package domain contains the core entities and rules for programming igniter
// control modules.
//
// This package represents the innermost layer of the application. It has no
// dependencies on infrastructure concerns (serial ports, file system, logging)
// and contains only pure business logic.
//
// # Entities
//
//   - [Profile]: the parameters written into one unit, with range validation
//   - [Frame]: the fixed 16-byte command frame and its two's-complement checksum
//   - [Scan]: a classified barcode scan (unit serial or product model)
//   - [Outcome]: the interpreted result of one transport exchange
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
