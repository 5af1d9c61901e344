// Package channel holds the fixed set of named relay channels, each pairing a
// message bus with the auth gates guarding its two directions.
package channel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Jelka-FMF/Veter/internal/auth"
	"github.com/Jelka-FMF/Veter/internal/broadcast"
)

const (
	// State carries device state from an authenticated publisher to anyone.
	State = "state"
	// Interaction carries user input from anyone to authenticated subscribers.
	Interaction = "interaction"
)

// Spec declares one channel.
type Spec struct {
	Name         string
	Capacity     int
	InboundAuth  bool
	OutboundAuth bool
}

// DefaultSpecs returns the deployed channel set.
func DefaultSpecs(capacity int) []Spec {
	return []Spec{
		{Name: State, Capacity: capacity, InboundAuth: true},
		{Name: Interaction, Capacity: capacity, OutboundAuth: true},
	}
}

// Channel is a named bus. A nil gate leaves that direction open.
type Channel struct {
	Name     string
	Bus      *broadcast.Bus
	Inbound  *auth.Gate
	Outbound *auth.Gate
}

// Registry is immutable after construction.
type Registry struct {
	channels []*Channel
	byName   map[string]*Channel
}

var errEmptyToken = errors.New("token must not be empty when a channel requires auth")

// NewRegistry builds every channel in specs. Inbound gates expect the
// WebSocket subprotocol form of token and outbound gates the Authorization
// form.
func NewRegistry(token string, specs []Spec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, errors.New("at least one channel is required")
	}

	r := &Registry{
		channels: make([]*Channel, 0, len(specs)),
		byName:   make(map[string]*Channel, len(specs)),
	}

	for _, spec := range specs {
		if err := validate(spec); err != nil {
			return nil, err
		}
		if _, dup := r.byName[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate channel name %q", spec.Name)
		}
		if (spec.InboundAuth || spec.OutboundAuth) && token == "" {
			return nil, fmt.Errorf("channel %q: %w", spec.Name, errEmptyToken)
		}

		ch := &Channel{
			Name: spec.Name,
			Bus:  broadcast.New(spec.Capacity),
		}
		if spec.InboundAuth {
			ch.Inbound = auth.NewSubprotocol(token)
		}
		if spec.OutboundAuth {
			ch.Outbound = auth.NewAuthorization(token)
		}

		r.channels = append(r.channels, ch)
		r.byName[ch.Name] = ch
	}

	return r, nil
}

func validate(spec Spec) error {
	switch {
	case spec.Name == "":
		return errors.New("channel name must not be empty")
	case strings.Contains(spec.Name, "/"):
		return fmt.Errorf("channel name %q must not contain '/'", spec.Name)
	case spec.Capacity < 1:
		return fmt.Errorf("channel %q: capacity must be at least 1, got %d", spec.Name, spec.Capacity)
	}
	return nil
}

// Lookup returns the named channel.
func (r *Registry) Lookup(name string) (*Channel, bool) {
	ch, ok := r.byName[name]
	return ch, ok
}

// Channels returns every channel in declaration order.
func (r *Registry) Channels() []*Channel {
	out := make([]*Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// Close closes every channel's bus. Subscribers drain what is buffered and
// then stop.
func (r *Registry) Close() {
	for _, ch := range r.channels {
		ch.Bus.Close()
	}
}
