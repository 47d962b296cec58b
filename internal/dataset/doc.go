// Package dataset generates the synthetic sales dataset in independent batches.
//
// A run partitions the requested record count into fixed-size batches, derives one
// seed per batch from the master seed, generates each batch on a fixed-size pool of
// workers and streams finished batches to a Sink in completion order. A failing
// batch is reported and does not stop its siblings; a failing sink aborts the run.
//
// Given the same GenerationConfig, the set of batches (ids, seeds and row values) is
// identical regardless of the number of workers. Only the order in which batches
// reach the sink varies, and with a single worker it is batch-index order.
package dataset
