// Package commands implements the chatwire-log CLI commands.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/chatwire/chatwire-go/pkg/log"
)

// FilterOptions holds the raw filter flag values shared by the view,
// export, and filter commands.
type FilterOptions struct {
	ConnID    string
	Session   string
	Target    string
	Layer     string
	Direction string
	Category  string
	TimeStart string
	TimeEnd   string
}

// Build parses the flag values into a log.Filter. Returns nil when no
// filter flag was set.
func (o *FilterOptions) Build() (*log.Filter, error) {
	filter := &log.Filter{
		ConnectionID: o.ConnID,
		SessionName:  o.Session,
		Target:       o.Target,
	}
	empty := o.ConnID == "" && o.Session == "" && o.Target == ""

	if o.Layer != "" {
		l, err := parseLayer(o.Layer)
		if err != nil {
			return nil, err
		}
		filter.Layer = &l
		empty = false
	}
	if o.Direction != "" {
		d, err := parseDirection(o.Direction)
		if err != nil {
			return nil, err
		}
		filter.Direction = &d
		empty = false
	}
	if o.Category != "" {
		c, err := parseCategory(o.Category)
		if err != nil {
			return nil, err
		}
		filter.Category = &c
		empty = false
	}
	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return nil, fmt.Errorf("invalid time-start: %w", err)
		}
		filter.TimeStart = &t
		empty = false
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid time-end: %w", err)
		}
		filter.TimeEnd = &t
		empty = false
	}

	if empty {
		return nil, nil
	}
	return filter, nil
}

// parseLayer parses a layer string (case-insensitive).
func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "client":
		return log.LayerClient, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, wire, or client)", s)
	}
}

// parseDirection parses a direction string (case-insensitive).
func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "control":
		return log.CategoryControl, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, control, state, or error)", s)
	}
}
