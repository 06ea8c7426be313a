// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Flash types understood by the templates.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AddFlash appends a message to the flash queue of the request's session.
// The queue expires together with the session.
func (s *Store) AddFlash(ctx context.Context, r *http.Request, typ, message string) error {
	id, ok := sessionID(r)
	if !ok {
		return ErrNoSession
	}

	payload, err := json.Marshal(Flash{Type: typ, Message: message})
	if err != nil {
		return fmt.Errorf("flash marshal: %w", err)
	}

	key := flashPrefix + id
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("flash add: %w", err)
	}
	return nil
}

// PopFlashes returns and clears every queued flash of the request's
// session. Requests without a session have no flashes.
func (s *Store) PopFlashes(ctx context.Context, r *http.Request) ([]Flash, error) {
	id, ok := sessionID(r)
	if !ok {
		return nil, nil
	}

	key := flashPrefix + id
	pipe := s.client.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("flash pop: %w", err)
	}

	raw := items.Val()
	flashes := make([]Flash, 0, len(raw))
	for _, item := range raw {
		var f Flash
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			slog.Warn("dropping malformed flash", "error", err)
			continue
		}
		flashes = append(flashes, f)
	}
	return flashes, nil
}
