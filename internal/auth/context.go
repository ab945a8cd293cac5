// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
)

type contextKey string

const actorKey contextKey = "actor"

// Actor is the authenticated identity stored in a request context.
type Actor struct {
	UserID   string
	OrgID    int64
	Role     string
	DeviceID string
}

// SetActor stores the actor in the context.
func SetActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor retrieves the actor from the context.
func GetActor(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
