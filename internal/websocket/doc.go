// Package websocket pushes dataset lifecycle events to connected browsers.
//
// A single Hub goroutine owns the client set. Each Client runs a read pump,
// which only watches for disconnects, and a write pump, which drains the
// client's buffer and sends keepalive pings. Clients that fall behind are
// dropped rather than allowed to stall a broadcast.
package websocket
