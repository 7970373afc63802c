package authflow

// Decide describes the decide operation and its observable behavior.
//
// Decide maps a session snapshot to the screen it belongs on: no session
// goes to login, an unverified session to the verify-email screen, and a
// verified one to the protected area.
func Decide(s *Session) Destination {
	switch {
	case s == nil:
		return DestinationLogin
	case !s.Verified:
		return DestinationVerifyEmail
	default:
		return DestinationProtected
	}
}

// BindRouting describes the bindrouting operation and its observable behavior.
//
// BindRouting invokes route with the destination for every session change,
// starting with the current one, so a navigation layer can follow the
// session without polling. The returned func removes the binding.
func (e *Engine) BindRouting(route func(Destination)) func() {
	route(Decide(e.watcher.Current()))
	return e.watcher.OnChange(func(s *Session) {
		route(Decide(s))
	})
}
