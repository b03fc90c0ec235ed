// Package cli provides the interactive MediMinder command-line client.
//
// It drives the application services from a line-based REPL. Data commands
// work whether or not a user is signed in: records live in the local cache
// and are synchronized in the background once a session exists. A watcher
// probes the server and shows online/offline in the prompt, and collections
// changed by another device are flagged until listed again.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
