// Package batch splits a record count into fixed-size batches and tracks how far a
// batched run has progressed.
//
// The partitioner hands out half-open ranges that tile [0, total) exactly; the last
// range is shorter when total is not a multiple of the batch size. Progress is safe
// for concurrent use so workers and renderers can share one tracker.
package batch
