// Package store holds the frames a synchronizer has not yet matched or dropped.
//
// Each channel owns one [Partition]: a [Set] mapping frame ids to frames and
// an [Index] ordering the same ids by timestamp. A Partition keeps the two in
// lockstep; every id in the Set is in the Index and vice versa.
//
// Nothing in this package is safe for concurrent use. The caller (the gate in
// internal/app) serializes all access.
package store
