package client

import "time"

// OnConnected sets the callback fired when the bridge channel is up.
func (c *Client) OnConnected(fn func()) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onConnected = fn
}

// OnDisconnected sets the callback fired when the connection ends.
// Fired exactly once per disconnection.
func (c *Client) OnDisconnected(fn func()) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onDisconnected = fn
}

// OnReconnecting sets the callback fired when a reconnection attempt
// is scheduled. The attempt number is 1-based.
func (c *Client) OnReconnecting(fn func(attempt uint, delay time.Duration)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onReconnecting = fn
}

// OnAuthenticated sets the callback fired after a successful
// authentication round.
func (c *Client) OnAuthenticated(fn func()) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onAuthenticated = fn
}

// OnReady sets the callback fired when the client is authenticated
// and connected.
func (c *Client) OnReady(fn func()) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onReady = fn
}

// OnQR sets the callback fired for QR payloads during authentication.
// updated is false for the first payload of an attempt.
func (c *Client) OnQR(fn func(payload string, updated bool)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onQR = fn
}

// OnPairingCode sets the callback fired with a generated pairing code.
func (c *Client) OnPairingCode(fn func(code string)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onPairingCode = fn
}

// OnMessage sets the callback fired for inbound messages.
func (c *Client) OnMessage(fn func(msg Message)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onMessage = fn
}

// OnError sets the callback fired for errors the client handles
// internally, e.g. channel failures feeding reconnection.
func (c *Client) OnError(fn func(err error)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onError = fn
}

// OnMaxReconnectAttemptsReached sets the callback fired exactly once
// when automatic reconnection gives up.
func (c *Client) OnMaxReconnectAttemptsReached(fn func()) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onMaxAttempts = fn
}

func (c *Client) emitConnected() {
	c.cbMu.Lock()
	fn := c.onConnected
	c.cbMu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) emitDisconnected() {
	c.cbMu.Lock()
	fn := c.onDisconnected
	c.cbMu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) emitReconnecting(attempt uint, delay time.Duration) {
	c.cbMu.Lock()
	fn := c.onReconnecting
	c.cbMu.Unlock()
	if fn != nil {
		fn(attempt, delay)
	}
}

func (c *Client) emitAuthenticated() {
	c.cbMu.Lock()
	fn := c.onAuthenticated
	c.cbMu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) emitReady() {
	c.cbMu.Lock()
	fn := c.onReady
	c.cbMu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) emitQR(payload string, updated bool) {
	c.cbMu.Lock()
	fn := c.onQR
	c.cbMu.Unlock()
	if fn != nil {
		fn(payload, updated)
	}
}

func (c *Client) emitPairingCode(code string) {
	c.cbMu.Lock()
	fn := c.onPairingCode
	c.cbMu.Unlock()
	if fn != nil {
		fn(code)
	}
}

func (c *Client) emitMessage(msg Message) {
	c.cbMu.Lock()
	fn := c.onMessage
	c.cbMu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

func (c *Client) emitError(err error) {
	c.cbMu.Lock()
	fn := c.onError
	c.cbMu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (c *Client) emitMaxAttempts() {
	c.cbMu.Lock()
	fn := c.onMaxAttempts
	c.cbMu.Unlock()
	if fn != nil {
		fn()
	}
}
