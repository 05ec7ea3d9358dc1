// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// synchronizer needs from its collaborators without specifying how those
// needs are fulfilled.
//
// # Port Interfaces
//
//   - [PairSink]: Receives matched pairs
//   - [FrameSource]: Yields timestamped frames for one channel
//   - [Ingestor]: Accepts frames on a channel (implemented by the synchronizer)
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters/fs, plugins/pairjournal) implement
// them with concrete file and database backends.
package ports
