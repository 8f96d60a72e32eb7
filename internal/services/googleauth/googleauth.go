// Package googleauth builds Google API client options from a service
// account key file.
package googleauth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"mp4creator/internal/services"
)

// ClientOptions reads the service account key at keyPath and returns options
// authorising the given scopes. Extra options are appended unchanged, which
// lets tests point the client at a local endpoint.
func ClientOptions(ctx context.Context, keyPath string, scopes []string, extra ...option.ClientOption) ([]option.ClientOption, error) {
	keyPath = strings.TrimSpace(keyPath)
	if keyPath == "" {
		return nil, services.Wrap(services.ErrConfiguration, "google", "credentials", "service_account_key_path is not set", nil)
	}
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "google", "credentials", "read key file", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "google", "credentials", fmt.Sprintf("parse %s", keyPath), err)
	}
	opts := []option.ClientOption{option.WithCredentials(creds)}
	return append(opts, extra...), nil
}
