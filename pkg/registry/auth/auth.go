// Package auth provides functionality for authenticating with container registries.
// It exchanges an anonymous pull-scope request for a bearer token.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/pkg/registry"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// Errors for registry token retrieval.
var (
	// errFailedCreateRequest indicates the token request could not be built.
	errFailedCreateRequest = errors.New("failed to create token request")
	// errFailedExecuteRequest indicates a network error or timeout reaching the token endpoint.
	errFailedExecuteRequest = errors.New("failed to execute token request")
	// errUnexpectedStatus indicates the token endpoint answered with a non-200 status.
	errUnexpectedStatus = errors.New("token endpoint returned unexpected status")
	// errFailedDecodeToken indicates the token response body was not valid JSON.
	errFailedDecodeToken = errors.New("failed to decode token response")
	// errMissingToken indicates the token response carried no token field.
	errMissingToken = errors.New("token response did not include a token")
)

// GetToken fetches an anonymous pull-scope bearer token for a repository.
//
// Failures are logged here and returned so callers can degrade the affected lookup to
// "unknown"; they must never abort a check cycle.
//
// Parameters:
//   - ctx: Context for request lifecycle control.
//   - client: Registry HTTP client carrying the request timeout.
//   - profile: Registry profile the image was classified to.
//   - repositoryPath: Repository path the token is requested for.
//
// Returns:
//   - types.AuthToken: The issued token.
//   - error: Non-nil on network error, timeout, non-200 status or missing token.
func GetToken(
	ctx context.Context,
	client *registry.Client,
	profile registry.Profile,
	repositoryPath string,
) (types.AuthToken, error) {
	authURL := profile.AuthURL(repositoryPath)
	fields := logrus.Fields{
		"registry":   profile.Kind,
		"repository": repositoryPath,
	}

	token, err := fetchToken(ctx, client, authURL)
	if err != nil {
		logrus.WithError(err).WithFields(fields).Warn("Failed to get registry token")

		return types.AuthToken{}, err
	}

	logrus.WithFields(fields).Debug("Received registry token")

	return types.AuthToken{
		Value:     token,
		IssuedFor: profile.APIPath(repositoryPath),
	}, nil
}

func fetchToken(ctx context.Context, client *registry.Client, authURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, client.RequestTimeout())
	defer cancel()

	logrus.WithField("url", authURL).Debug("Requesting registry token")

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errFailedCreateRequest, err)
	}

	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errFailedExecuteRequest, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", errUnexpectedStatus, res.Status)
	}

	tokenResponse := types.TokenResponse{}
	if err := json.NewDecoder(res.Body).Decode(&tokenResponse); err != nil {
		return "", fmt.Errorf("%w: %w", errFailedDecodeToken, err)
	}

	if tokenResponse.Token == "" {
		return "", errMissingToken
	}

	return tokenResponse.Token, nil
}

// BearerHeader formats a token as an Authorization header value.
func BearerHeader(token types.AuthToken) string {
	return "Bearer " + token.Value
}
