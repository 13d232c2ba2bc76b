// Package access decides whether an actor may mutate a shared resource.
// Callers fetch the resource state; nothing here touches storage.
package access

import (
	"errors"
	"fmt"

	"estate-service/model"
)

var ErrInvariantViolation = errors.New("access invariant violation")

type Kind string

const (
	KindProperty Kind = "property"
	KindMessage  Kind = "message"
	KindFavorite Kind = "favorite"
)

type Action string

const (
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionAttachImage Action = "attach_image"
	ActionMarkRead    Action = "mark_read"
	ActionCreate      Action = "create"
	ActionRemove      Action = "remove"
)

type Reason string

const (
	NotOwner         Reason = "NotOwner"
	NotRecipient     Reason = "NotRecipient"
	ResourceNotFound Reason = "ResourceNotFound"
	AlreadyFavorited Reason = "AlreadyFavorited"
	NotFound         Reason = "NotFound"
)

type Actor struct {
	ID   uint
	Role model.Role
}

func ActorOf(user model.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

// Resource is the already fetched state a decision depends on. OwnerID is the
// property owner or the message receiver; the favorite flags describe the
// (actor, property) pair.
type Resource struct {
	Kind           Kind
	OwnerID        uint
	PropertyExists bool
	Favorited      bool
}

func ForProperty(property model.Property) Resource {
	return Resource{Kind: KindProperty, OwnerID: property.OwnerID}
}

func ForMessage(message model.Message) Resource {
	return Resource{Kind: KindMessage, OwnerID: message.ReceiverID}
}

func ForFavorite(propertyExists, favorited bool) Resource {
	return Resource{Kind: KindFavorite, PropertyExists: propertyExists, Favorited: favorited}
}

type Decision struct {
	Allowed bool
	Reason  Reason
}

var allow = Decision{Allowed: true}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err returns nil for an allow and a *DenyError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DenyError{Reason: d.Reason}
}

type DenyError struct {
	Reason Reason
}

func (e *DenyError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// CanMutate evaluates the rules for one (resource kind, action) pair.
func CanMutate(actor Actor, resource Resource, action Action) (Decision, error) {
	if actor.ID == 0 {
		return Decision{}, fmt.Errorf("%w: actor has no id", ErrInvariantViolation)
	}

	switch resource.Kind {
	case KindProperty:
		if resource.OwnerID == 0 {
			return Decision{}, fmt.Errorf("%w: property has no owner", ErrInvariantViolation)
		}
		switch action {
		case ActionUpdate, ActionDelete:
			if actor.ID == resource.OwnerID || actor.Role == model.RoleAdmin {
				return allow, nil
			}
			return deny(NotOwner), nil
		case ActionAttachImage:
			// Administrators get no bypass here.
			if actor.ID == resource.OwnerID {
				return allow, nil
			}
			return deny(NotOwner), nil
		}

	case KindMessage:
		if resource.OwnerID == 0 {
			return Decision{}, fmt.Errorf("%w: message has no receiver", ErrInvariantViolation)
		}
		if action == ActionMarkRead {
			if actor.ID == resource.OwnerID {
				return allow, nil
			}
			return deny(NotRecipient), nil
		}

	case KindFavorite:
		switch action {
		case ActionCreate:
			if !resource.PropertyExists {
				return deny(ResourceNotFound), nil
			}
			if resource.Favorited {
				return deny(AlreadyFavorited), nil
			}
			return allow, nil
		case ActionRemove:
			if resource.Favorited {
				return allow, nil
			}
			return deny(NotFound), nil
		}

	default:
		return Decision{}, fmt.Errorf("%w: unknown resource kind %q", ErrInvariantViolation, resource.Kind)
	}

	return Decision{}, fmt.Errorf("%w: action %q is not defined for %s", ErrInvariantViolation, action, resource.Kind)
}
