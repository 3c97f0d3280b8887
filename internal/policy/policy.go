// ABOUTME: Access policy deciding who may view or change a todo
// ABOUTME: One ownership rule for every action, with a user-facing message per action

package policy

import (
	"errors"

	"github.com/2389/todo-board/internal/store"
)

// ErrAuthRequired is the kind of denial returned when a private todo is
// accessed without an identity.
var ErrAuthRequired = errors.New("authentication required")

// ErrForbidden is the kind of denial returned when a private todo belongs to
// someone else.
var ErrForbidden = errors.New("not the owner")

// Action is an operation on an existing todo.
type Action string

const (
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionToggle Action = "toggle"
	ActionDelete Action = "delete"
)

// Denial is returned when an action is not allowed. Kind is ErrAuthRequired
// or ErrForbidden; Message is shown to the user.
type Denial struct {
	Action  Action
	Kind    error
	Message string
}

func (d *Denial) Error() string {
	return string(d.Action) + ": " + d.Kind.Error()
}

func (d *Denial) Unwrap() error {
	return d.Kind
}

type messages struct {
	authRequired string
	forbidden    string
}

var actionMessages = map[Action]messages{
	ActionView: {
		authRequired: "You must log in to view the detail of a private todo!",
		forbidden:    "You cannot view the detail of a todo that is not yours!",
	},
	ActionUpdate: {
		authRequired: "You must log in to change a private todo!",
		forbidden:    "You cannot change a todo that is not yours!",
	},
	ActionToggle: {
		authRequired: "You must log in to change the status of a private todo!",
		forbidden:    "You cannot change the status of a todo that is not yours!",
	},
	ActionDelete: {
		authRequired: "You must log in to delete a private todo!",
		forbidden:    "You cannot delete a todo that is not yours!",
	},
}

const createPrivateMessage = "You must log in to create a private todo!"

// Authorize decides whether identity may perform action on todo.
// Public todos allow everyone, including anonymous requests. Private todos
// allow only their owner. A nil return means allowed; otherwise the error is
// a *Denial.
func Authorize(action Action, todo *store.Todo, identity *store.User) error {
	if todo.IsPublic() {
		return nil
	}

	msgs := actionMessages[action]
	if identity == nil {
		return &Denial{Action: action, Kind: ErrAuthRequired, Message: msgs.authRequired}
	}
	if !todo.OwnedBy(identity.ID) {
		return &Denial{Action: action, Kind: ErrForbidden, Message: msgs.forbidden}
	}

	return nil
}

// AuthorizeCreate decides whether identity may create a todo. Private todos
// need an identity to become their owner.
func AuthorizeCreate(private bool, identity *store.User) error {
	if private && identity == nil {
		return &Denial{Action: "create", Kind: ErrAuthRequired, Message: createPrivateMessage}
	}
	return nil
}
