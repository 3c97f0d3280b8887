// Package auth provides user credentials and request identity for todo-board.
//
// # Credentials
//
// Users register with a username and password. The password is hashed with
// bcrypt and a 32-byte random token is issued, hex encoded. The token is the
// only session credential: it has no expiry and is never rotated.
//
// Password checks never reveal whether a username exists. Unknown usernames
// run a bcrypt comparison against a fixed hash so both failure paths take
// the same time, and both return (nil, nil).
//
// # Request Identity
//
// IdentityMiddleware reads the token cookie and stores the resolved user in
// the request context:
//
//	user := auth.IdentityFromContext(r.Context()) // nil when anonymous
//
// An unknown token is treated the same as no token.
package auth
