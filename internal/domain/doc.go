// Package domain contains the core domain entities and value objects for framesync.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (locking, logging, storage) and
// contains only the vocabulary the synchronizer is built from.
//
// # Entities
//
//   - [Frame]: A timestamped payload ingested on one [Channel]
//   - [Pair]: A primary and a secondary frame whose timestamps matched
//   - [DropReason]: Why a frame left the synchronizer without a partner
//
// # Design Principles
//
// Domain entities are:
//   - Plain values, copied freely
//   - Free of infrastructure dependencies
//   - Opaque about payloads: the synchronizer never inspects them
package domain
