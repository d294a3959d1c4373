package session

import "samvaad/internal/entity"

// IsAuthorized reports whether sess may perform an action reserved for
// required. The remote API still has the final say.
func IsAuthorized(sess *entity.Session, required entity.Role) bool {
	if !sess.Valid() || required == "" {
		return false
	}
	return sess.User.Role == required
}
