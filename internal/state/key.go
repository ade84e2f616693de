package state

// StorageKey derives the storage key for a slot. Pure: the same inputs
// always yield the same key, and distinct (key, perDay, day, user) tuples
// never collide.
//
// Shapes:
//
//	flowday_<key>                      anonymous, not day-scoped
//	flowday_<key>_<day>                anonymous, day-scoped
//	flowday_u_<uid8>_<key>             signed in, not day-scoped
//	flowday_u_<uid8>_<key>_<day>       signed in, day-scoped
func StorageKey(key string, perDay bool, day, userID string) string {
	k := Namespace + userPrefix(userID) + key
	if perDay {
		k += "_" + day
	}
	return k
}

// userPrefix is a stable truncated fragment of the user ID, empty for
// anonymous sessions.
func userPrefix(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) > 8 {
		userID = userID[:8]
	}
	return "u_" + userID + "_"
}
