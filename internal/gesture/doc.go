// Package gesture implements the producer side of the motion pipeline: a
// sliding sample window fed from an IMU, a classifier invocation per window,
// and a versioned shared result that downstream consumers poll.
//
// Concurrency model: one Runner goroutine continuously refreshes the result;
// any number of consumer goroutines snapshot it via State.Read. State is the
// only shared mutable value in the pipeline. Its lock is held only for the
// copy of the composite result, never across sampling, classification, or
// consumer policy, so a slow consumer cannot block the producer.
//
// The result carries a sequence number that increments on every publish,
// including re-confirmations of the same label. Consumers keep a private
// high-water mark and treat an unchanged sequence as "nothing new". Clearing
// the result (a consumer-driven operation) resets the label but leaves the
// sequence untouched, so a clear is never mistaken for fresh data.
package gesture
