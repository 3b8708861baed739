package client

import (
	"time"

	"github.com/chatwire/chatwire-go/pkg/connection"
	"github.com/chatwire/chatwire-go/pkg/log"
	"github.com/chatwire/chatwire-go/pkg/wire"
)

// event builds the common envelope for a log event.
func (c *Client) event(direction log.Direction, layer log.Layer, category log.Category) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    direction,
		Layer:        layer,
		Category:     category,
		SessionName:  c.config.SessionName,
	}
}

// logMessage records a decoded wire frame.
func (c *Client) logMessage(direction log.Direction, kind wire.Kind, seq uint32, clientID string, accepted *bool) {
	ev := c.event(direction, log.LayerWire, log.CategoryMessage)
	ev.Message = &log.MessageEvent{
		Kind:     kind,
		Seq:      seq,
		ClientID: clientID,
		Accepted: accepted,
	}
	c.logger.Log(ev)
}

// logControl records a probe, probe-ack, or close frame.
func (c *Client) logControl(direction log.Direction, msgType log.ControlMsgType, closeCode *uint8) {
	ev := c.event(direction, log.LayerWire, log.CategoryControl)
	ev.ControlMsg = &log.ControlMsgEvent{
		Type:      msgType,
		CloseCode: closeCode,
	}
	c.logger.Log(ev)
}

// logStateChange records a connection state transition.
func (c *Client) logStateChange(old, new connection.State, reason string) {
	ev := c.event(log.DirectionIn, log.LayerClient, log.CategoryState)
	ev.StateChange = &log.StateChangeEvent{
		Entity:   log.StateEntityConnection,
		OldState: old.String(),
		NewState: new.String(),
		Reason:   reason,
	}
	c.logger.Log(ev)
}

// logWarning records a non-fatal anomaly the client tolerated.
func (c *Client) logWarning(message string) {
	ev := c.event(log.DirectionIn, log.LayerClient, log.CategoryError)
	ev.Error = &log.ErrorEventData{
		Layer:   log.LayerClient,
		Message: message,
		Context: "warning",
	}
	c.logger.Log(ev)
}

// logError records an error at the given layer.
func (c *Client) logError(layer log.Layer, err error, context string) {
	ev := c.event(log.DirectionIn, layer, log.CategoryError)
	ev.Error = &log.ErrorEventData{
		Layer:   layer,
		Message: err.Error(),
		Context: context,
	}
	c.logger.Log(ev)
}
