package assistant

import (
	"strings"

	"google.golang.org/api/option"
)

// clientOptions turns GOOGLE_APPLICATION_CREDENTIALS into client options.
// Inline JSON and a file path are both accepted; empty falls back to ADC.
func clientOptions(credentials string) []option.ClientOption {
	credentials = strings.TrimSpace(credentials)
	if credentials == "" {
		return nil
	}
	if strings.HasPrefix(credentials, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credentials))}
	}
	return []option.ClientOption{option.WithCredentialsFile(credentials)}
}
