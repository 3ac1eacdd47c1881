// Package dataset loads the orders dataset from its source and turns it into an analytics.Table.
//
// A source is an http(s) URL, an s3://bucket/key URI or a local path. Loader performs one
// bounded fetch and parse per call; CachedLoader memoizes snapshots per source, collapses
// concurrent loads and optionally shares raw bytes across processes through a DatasetStore.
package dataset
