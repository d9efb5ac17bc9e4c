// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the programming workflow and the outside
// world. They define what the application needs from external systems
// without specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Channel]: an open duplex byte stream to the programmer
//   - [PortLocator]: resolves exactly one channel to the programmer
//   - [RecordStore]: per-unit audit records
//   - [ResultPublisher]: ships finished attempts to line monitoring
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with serial
// ports, the file system, MQTT, and zerolog.
package ports
