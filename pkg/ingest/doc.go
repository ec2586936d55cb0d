// Package ingest accepts trigger input over TCP.
//
// Clients send newline-delimited JSON frames, one message per line:
//
//	{"node": "boiler", "token": "s3cret", "msg": {"payload": {"temp": 41.5}}}
//	{"node": "boiler", "payload": 41.5}
//
// Each frame is answered with a single line:
//
//	{"ok":true}
//	{"ok":false,"error":"node not found: \"boiler\""}
//
// When the server is configured with a bcrypt token hash, the first frame of
// a connection must carry a matching token. Later frames on the same
// connection may omit it.
package ingest
