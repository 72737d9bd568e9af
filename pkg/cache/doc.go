// Package cache provides the bounded response cache used by the relay.
//
// Entries are bodies of successful upstream GET responses keyed by the raw
// request path. Three limits apply at all times: an entry count
// (MaxCapacity), a total byte budget (MaxMemory) and a time to live. When
// room is needed the least recently used entry goes first; reading an entry
// counts as a use.
//
// Expired entries are never served. Get drops them on access and
// PurgeExpired, run periodically by the maintenance scheduler, drops the rest.
package cache
