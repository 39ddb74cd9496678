// Package syncgate defers deletion until the cloud-sync agent has settled.
//
// An Oracle reports a tri-state sync status for a single path; the Gate
// polls it with a bounded timeout. The policy biases toward progress: when
// the oracle times out or cannot answer, the gate reports that the caller
// may proceed, with a flag so the caller can log the degraded decision. The
// gate is only consulted for recovery-eligible detections, where deletion
// should be conservative.
package syncgate
