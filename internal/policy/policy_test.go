// ABOUTME: Tests for the access policy
// ABOUTME: Exercises the ownership rule for every action and identity combination

package policy

import (
	"errors"
	"testing"

	"github.com/2389/todo-board/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allActions = []Action{ActionView, ActionUpdate, ActionToggle, ActionDelete}

func TestAuthorize_PublicTodoAllowsEveryone(t *testing.T) {
	todo := &store.Todo{ID: 1, Title: "public"}
	identities := []*store.User{nil, {ID: 1}, {ID: 2}}

	for _, action := range allActions {
		for _, identity := range identities {
			assert.NoError(t, Authorize(action, todo, identity), "action %s", action)
		}
	}
}

func TestAuthorize_PrivateTodo(t *testing.T) {
	owner := int64(1)
	todo := &store.Todo{ID: 1, Title: "private", OwnerID: &owner}

	for _, action := range allActions {
		t.Run(string(action), func(t *testing.T) {
			assert.NoError(t, Authorize(action, todo, &store.User{ID: 1}))

			err := Authorize(action, todo, nil)
			assert.ErrorIs(t, err, ErrAuthRequired)
			var denial *Denial
			require.True(t, errors.As(err, &denial))
			assert.Equal(t, action, denial.Action)
			assert.Contains(t, denial.Message, "You must log in")

			err = Authorize(action, todo, &store.User{ID: 2})
			assert.ErrorIs(t, err, ErrForbidden)
			require.True(t, errors.As(err, &denial))
			assert.Contains(t, denial.Message, "not yours")
		})
	}
}

func TestAuthorize_MessagesAreDistinctPerAction(t *testing.T) {
	owner := int64(1)
	todo := &store.Todo{OwnerID: &owner}

	seen := make(map[string]Action)
	for _, action := range allActions {
		for _, identity := range []*store.User{nil, {ID: 2}} {
			var denial *Denial
			require.True(t, errors.As(Authorize(action, todo, identity), &denial))
			prev, dup := seen[denial.Message]
			assert.False(t, dup, "message %q shared by %s and %s", denial.Message, prev, action)
			seen[denial.Message] = action
		}
	}
}

func TestAuthorize_ExactMessages(t *testing.T) {
	owner := int64(1)
	todo := &store.Todo{OwnerID: &owner}

	var denial *Denial
	require.True(t, errors.As(Authorize(ActionToggle, todo, nil), &denial))
	assert.Equal(t, "You must log in to change the status of a private todo!", denial.Message)

	require.True(t, errors.As(Authorize(ActionDelete, todo, &store.User{ID: 9}), &denial))
	assert.Equal(t, "You cannot delete a todo that is not yours!", denial.Message)
}

func TestAuthorizeCreate(t *testing.T) {
	assert.NoError(t, AuthorizeCreate(false, nil))
	assert.NoError(t, AuthorizeCreate(false, &store.User{ID: 1}))
	assert.NoError(t, AuthorizeCreate(true, &store.User{ID: 1}))

	err := AuthorizeCreate(true, nil)
	assert.ErrorIs(t, err, ErrAuthRequired)
	var denial *Denial
	require.True(t, errors.As(err, &denial))
	assert.Equal(t, "You must log in to create a private todo!", denial.Message)
}
