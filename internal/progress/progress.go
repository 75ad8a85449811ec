// Package progress defines the types shards use to report how far their
// allocation loop has advanced.
package progress

// ProgressUpdate is a single progress notification sent by a shard.
type ProgressUpdate struct {
	// ShardIndex identifies the shard that sent the update.
	ShardIndex int
	// Value is the fraction of quanta placed so far (0.0 to 1.0).
	Value float64
}

// ProgressCallback receives the fraction of work completed by one shard.
// Implementations must not block.
type ProgressCallback func(progress float64)

// Nop is a ProgressCallback that discards every update.
func Nop(float64) {}

// ChannelCallback returns a ProgressCallback that forwards updates for the
// given shard to ch. Sends are non-blocking: when the channel is full the
// update is dropped, since a later update supersedes it anyway.
func ChannelCallback(ch chan<- ProgressUpdate, shardIndex int) ProgressCallback {
	if ch == nil {
		return Nop
	}
	return func(v float64) {
		select {
		case ch <- ProgressUpdate{ShardIndex: shardIndex, Value: v}:
		default:
		}
	}
}
