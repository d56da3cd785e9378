// Package keygen derives stable string keys from ordered argument lists.
// Structurally equal argument lists always produce the same key within a
// running process; stability across process runs is not guaranteed.
//
// The primary consumer is the coalescer package, which needs a primitive map
// key for compound call parameters:
//
//	key := keygen.FromArgs(meetingID, raceNumber, []string{"horse", "harness"})
//	races, err := c.Do(ctx, key, fetch)
package keygen
