package sheets

import (
	"context"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"mp4creator/internal/services/googleauth"
)

func googleauthOptions(ctx context.Context, keyPath string, extra ...option.ClientOption) ([]option.ClientOption, error) {
	return googleauth.ClientOptions(ctx, keyPath, []string{sheetsv4.SpreadsheetsReadonlyScope}, extra...)
}
