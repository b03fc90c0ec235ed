// Package client wires the MediMinder client together.
//
// # Overview
//
// Build turns a config.Config into a Runtime: the SQLite-backed local
// cache, the transport selected by Config.Transport, the sync engine, the
// change notifier and the application services. The REST server remains
// the account provider whatever transport carries the data.
//
// Transports
//
//   - rest:   rest.LiveClient, HTTP plus websocket change events
//   - pg:     pgremote over pgstore, LISTEN/NOTIFY change events
//   - s3:     s3remote, one object per collection, no change events
//   - memory: memremote, process-local, for demos and tests
//
// Close releases everything Build opened, flushing queued pushes first.
package client
