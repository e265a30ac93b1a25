package secretbox

// Mask renders a secret for logs and API responses: the first and last four
// characters with the middle elided. Secrets too short to keep anything
// hidden are fully elided.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return "..."
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
