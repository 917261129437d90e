package common

// SessionTokenSize is the number of random bytes behind a session token.
// The hex encoding doubles it to 64 characters.
const SessionTokenSize = 32

// DefaultSessionCookieName is the cookie carrying the session token.
const DefaultSessionCookieName = "mu_session"
