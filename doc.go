// Package auth implements email verified sign up, cookie based sessions
// and role gated routes on top of fiber, bun and golang-jwt.
//
// Registration happens in two phases. Register validates the candidate,
// hashes the password, mails a one time code and hands the client a signed
// pending token as the "token" cookie. Nothing is written to the database
// until VerifyUser receives the matching code; only then is the user
// persisted and the cookie cleared.
//
// Login mints a session token carrying username, role and email. Protected
// groups run jwtware.New to authenticate the cookie and RequireRoles to check
// the role against an explicit RoleSet.
package auth
