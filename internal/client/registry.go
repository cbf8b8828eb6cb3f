package client

import (
	"slices"

	"github.com/BurntSushi/xgb/xproto"
)

// Registry maps window identifiers to clients. Iteration follows the order
// in which windows were first managed.
type Registry struct {
	clients map[xproto.Window]*Client
	order   []xproto.Window
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[xproto.Window]*Client)}
}

// Lookup returns the client for id, or nil.
func (r *Registry) Lookup(id xproto.Window) *Client {
	return r.clients[id]
}

// Manage returns the client for id, creating it on the given workspace when
// it does not exist yet. created is false when the entry already existed.
func (r *Registry) Manage(id xproto.Window, workspace int) (c *Client, created bool) {
	if c, ok := r.clients[id]; ok {
		return c, false
	}
	c = &Client{Window: id, Workspace: workspace}
	r.clients[id] = c
	r.order = append(r.order, id)
	return c, true
}

// Forget removes id and returns the removed client, or nil.
func (r *Registry) Forget(id xproto.Window) *Client {
	c, ok := r.clients[id]
	if !ok {
		return nil
	}
	delete(r.clients, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return c
}

func (r *Registry) Len() int {
	return len(r.order)
}

// All returns a snapshot of every client in registry order.
func (r *Registry) All() []*Client {
	out := make([]*Client, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.clients[id])
	}
	return out
}

// Select returns the clients for which keep returns true, in registry order.
func (r *Registry) Select(keep func(*Client) bool) []*Client {
	var out []*Client
	for _, id := range r.order {
		if c := r.clients[id]; keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// Windows returns every managed window identifier in registry order.
func (r *Registry) Windows() []xproto.Window {
	return slices.Clone(r.order)
}
