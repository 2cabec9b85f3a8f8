// Package netsync exposes a tuning.Registry over a WebSocket control channel.
//
// Every frame is one JSON text message, externally tagged by its variant:
//
//	{"ListAll":[]}
//	{"Tuneables":[{"<category>":{"<name>":<tuneable>}}]}
//	{"Delta":[["<category>","<name>",<tuneable>]]}
//	{"Ok":[["<category>","<name>"]]}
//
// where <tuneable> is itself tagged by kind:
//
//	{"Float32":[{"default":1,"min":0,"max":null,"current":0.5}]}
//	{"Boolean":[{"default":true,"current":false}]}
//
// A client sends ListAll and Delta. The server answers ListAll with a
// Tuneables snapshot and every Delta with Ok, whether or not the delta was
// applied. A client that sends Tuneables or Ok is closed with a protocol
// error; other sessions and the listener are not affected.
//
// Handler serves the server side (one session per connection, on the
// connection's own goroutine). Client is the matching dialer used by
// livetunectl and tests.
package netsync
