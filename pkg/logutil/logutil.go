package logutil

// ShortID truncates session and conversation identifiers for logging and
// display. Full identifiers never appear in logs or session-info responses.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
