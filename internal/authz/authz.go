// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package authz decides whether an actor may perform an action on a
// category. Rules live in a fixed table keyed by action and subject kind.
package authz

import (
	"github.com/google/uuid"

	"blogpress/internal/models"
)

// Action names an operation guarded by a per-object rule.
type Action string

const (
	Show   Action = "show"
	Edit   Action = "edit"
	Delete Action = "delete"
)

// Kind names the type of subject a rule applies to.
type Kind string

const KindCategory Kind = "category"

// Actor is the minimum the rules need to know about the requester.
type Actor struct {
	UserID uuid.UUID
	Role   models.Role
}

type ruleKey struct {
	action Action
	kind   Kind
}

// rule reports whether actor may act on the category.
type rule func(actor Actor, c *models.Category) bool

func authorOnly(actor Actor, c *models.Category) bool {
	return c != nil && c.IsAuthoredBy(actor.UserID)
}

var rules = map[ruleKey]rule{
	{Show, KindCategory}:   authorOnly,
	{Edit, KindCategory}:   authorOnly,
	{Delete, KindCategory}: authorOnly,
}

// denials holds the user-facing reason attached to a refusal.
var denials = map[Action]string{
	Show:   "Categories can only be shown to their authors.",
	Edit:   "Categories can only be edited by their authors.",
	Delete: "Categories can only be deleted by their authors.",
}

// Decision is the outcome of a permission check.
type Decision struct {
	Granted bool
	Reason  string // empty when granted
}

// Check evaluates action for actor against the category. Unknown actions
// are denied.
func Check(action Action, actor Actor, c *models.Category) Decision {
	r, ok := rules[ruleKey{action, KindCategory}]
	if ok && r(actor, c) {
		return Decision{Granted: true}
	}
	return Decision{Reason: DenialMessage(action)}
}

// DenialMessage returns the explanation shown when action is refused.
func DenialMessage(action Action) string {
	if msg, ok := denials[action]; ok {
		return msg
	}
	return "Access Denied."
}
