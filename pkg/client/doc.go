// Package client provides the ChatWire client facade.
//
// A Client owns one bridge connection and coordinates the moving
// parts around it: the connection state machine, the authentication
// orchestrator, the heartbeat monitor, the reconnection scheduler,
// the rate limiter, and the outbound send queue. Application code
// talks to the Client only; inbound traffic is surfaced through On*
// callbacks.
//
// A typical session:
//
//	c, err := client.New(client.Config{SessionName: "work"})
//	c.OnMessage(func(msg client.Message) { ... })
//	c.OnQR(func(payload string, updated bool) { render(payload) })
//	err = c.Connect(ctx)
//	err = c.Authenticate(ctx)
//	err = c.SendText(ctx, "+15550001111", "hello")
package client
