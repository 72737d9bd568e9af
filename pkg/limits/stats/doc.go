// Package stats records rate limit decisions for reporting.
//
// The relay calls a Recorder after every limiter decision. The backend is
// chosen by rate_limit.stats.backend:
//
//   - "none": Nop, nothing is recorded
//   - "memory": MemoryRecorder, counters in process memory
//   - "redis": RedisRecorder, pipelined HINCRBY into shared hashes
//
// Only counters leave the process. Limiter windows stay in memory.
package stats
