// Package dispatch routes generic key-value requests to the active storage
// backend or, for external processes, through a remote call channel. Both
// paths implement the same operation contract, so callers never learn
// which one served them.
package dispatch

import (
	"strconv"

	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
	"github.com/hostwatch/hostwatch/internal/store"
)

// Generic request actions.
const (
	ActionGet    = "get"
	ActionPut    = "put"
	ActionRemove = "remove"
	ActionScan   = "scan"
)

// Request is a generic storage request: a flat map of protocol fields.
// "action" is required; "domain" and "key" default to empty strings.
type Request map[string]string

// Response is the generic reply: a list of single-entry field maps.
// get replies [{"v": value}], scan replies [{"k": key}, ...]; put and
// remove reply with an empty list.
type Response []map[string]string

// Call executes a generic request against the given backend. Protocol
// errors are returned before any backend interaction, so a malformed
// request never causes a side effect. Backend errors propagate unchanged.
func Call(b store.Backend, req Request) (Response, error) {
	action, ok := req["action"]
	if !ok {
		return nil, hwerrors.NewProtocolError(hwerrors.CodeMissingAction,
			"database request must include an action")
	}

	// domain/key are used by most actions; absent reads as empty.
	domain := req["domain"]
	key := req["key"]

	switch action {
	case ActionGet:
		value, err := b.Get(domain, key)
		return Response{{"v": value}}, err

	case ActionPut:
		value, ok := req["value"]
		if !ok {
			return nil, hwerrors.NewProtocolError(hwerrors.CodeMissingValue,
				"database put action requires a value")
		}
		return nil, b.Put(domain, key, value)

	case ActionRemove:
		return nil, b.Remove(domain, key)

	case ActionScan:
		// Optionally allow the caller to cap the number of keys.
		max := 0
		if m, ok := req["max"]; ok && m != "" {
			n, err := strconv.Atoi(m)
			if err != nil || n < 0 {
				return nil, hwerrors.NewProtocolError(hwerrors.CodeInvalidMax,
					"database scan max must be a non-negative decimal: "+m)
			}
			max = n
		}
		keys, err := b.Scan(domain, req["prefix"], max)
		resp := make(Response, 0, len(keys))
		for _, k := range keys {
			resp = append(resp, map[string]string{"k": k})
		}
		return resp, err
	}

	return nil, hwerrors.NewProtocolError(hwerrors.CodeUnknownAction,
		"unknown database action: "+action)
}
