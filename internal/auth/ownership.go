package auth

// AssertOwner checks that the authenticated caller owns a resource before a
// mutation proceeds. It is applied uniformly ahead of every update and delete
// on comments, playlists, videos, and tweets; reads and creates only require
// authentication.
func AssertOwner(ownerID, callerID string) error {
	if ownerID == "" || callerID == "" || ownerID != callerID {
		return ErrForbidden
	}
	return nil
}
