// Package gateway is the realtime connectivity layer of the chatwire chat
// backend. It accepts HTTP and WebSocket connections on one listening
// socket, pushes every request through a fixed hardening pipeline (rolling
// signed session cookie, parameter-pollution normalisation, protective
// headers, single-origin CORS, compression, 50 MB body caps), and fans
// realtime events out across independently running instances through a
// shared message bus so clients connected to different instances observe
// the same room traffic.
//
// The two load-bearing pieces are the broadcast adapter and the failure
// pipeline. The adapter owns a publisher/subscriber connection pair to the
// bus (dialled concurrently, both-or-fail), stamps every outgoing event
// with the instance's identity, and replays foreign events to local
// sockets without ever double-delivering its own. The failure pipeline is
// a closed taxonomy of typed failures, each with a fixed status code and
// tag, consumed exactly once by the global failure handler; anything
// outside the taxonomy collapses to an opaque internal error.
//
// # Bus backends
//
// The bus is pluggable and selected by configuration:
//   - nats: NATS Core, the default
//   - kafka: broker list in the bus URL, per-instance consumer groups
//   - rabbitmq: durable fanout with per-instance queues
//   - channel: in-memory, for tests and local development
//
// A minimal deployment fills the environment (secrets, client origin, bus
// address), builds a Server with its route binder, and calls Start; see
// cmd/gateway.
package gateway
