package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"authgate/internal/users"
	"authgate/pkg/logger"
)

// GoogleResolver exchanges a Google access token for a verified email via the
// tokeninfo introspection endpoint, then finds or provisions the matching
// directory record. Transport faults, provider rejections and responses
// without an email all surface as ErrFederatedVerificationFailed; the log
// level is the only place the cases are told apart.
type GoogleResolver struct {
	directory users.Service
	client    *http.Client
	endpoint  string
	logger    *logger.Logger
}

func NewGoogleResolver(directory users.Service, endpoint string, timeout time.Duration) *GoogleResolver {
	return &GoogleResolver{
		directory: directory,
		client:    &http.Client{Timeout: timeout},
		endpoint:  endpoint,
		logger:    logger.GetDefault(),
	}
}

type tokenInfoResponse struct {
	Email string `json:"email"`
}

func (r *GoogleResolver) Resolve(ctx context.Context, creds Credentials) (*users.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("access_token", creds.ProviderToken)
	req.URL.RawQuery = query.Encode()

	resp, err := r.client.Do(req)
	if err != nil {
		// Provider unreachable is a system fault, not a rejected token, even
		// though the caller cannot tell the difference.
		r.logger.ErrorContext(ctx, "identity provider unreachable",
			slog.String("endpoint", r.endpoint),
			slog.String("error", err.Error()),
		)
		return nil, ErrFederatedVerificationFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.WarnContext(ctx, "identity provider rejected token",
			slog.Int("status", resp.StatusCode),
		)
		return nil, ErrFederatedVerificationFailed
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		r.logger.ErrorContext(ctx, "identity provider returned undecodable body",
			slog.String("error", err.Error()),
		)
		return nil, ErrFederatedVerificationFailed
	}

	if info.Email == "" {
		r.logger.WarnContext(ctx, "identity provider response lacks email claim")
		return nil, ErrFederatedVerificationFailed
	}

	return r.directory.FindOrCreateByEmail(ctx, info.Email)
}
