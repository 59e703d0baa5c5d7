package graph

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the Graph API host.
	DefaultBaseURL = "https://graph.facebook.com"

	// DefaultAPIVersion is the Graph API version used when none is configured.
	DefaultAPIVersion = "v19.0"

	// StatusFields are the container fields requested when polling.
	StatusFields = "status_code,status"

	// IdentityFields are the fields requested by the /me probe.
	IdentityFields = "id,username,account_type"

	// MaxCarouselChildren is the platform limit on carousel items.
	MaxCarouselChildren = 10
)

// MediaURL constructs the container creation endpoint for an account.
func MediaURL(baseURL, apiVersion, accountID string) string {
	return fmt.Sprintf("%s/%s/%s/media", strings.TrimRight(baseURL, "/"), apiVersion, accountID)
}

// PublishURL constructs the media_publish endpoint for an account.
func PublishURL(baseURL, apiVersion, accountID string) string {
	return fmt.Sprintf("%s/%s/%s/media_publish", strings.TrimRight(baseURL, "/"), apiVersion, accountID)
}

// StatusURL constructs the status query URL for a container.
func StatusURL(baseURL, apiVersion, containerID, accessToken string) string {
	params := url.Values{}
	params.Set("fields", StatusFields)
	params.Set("access_token", accessToken)

	return fmt.Sprintf("%s/%s/%s?%s", strings.TrimRight(baseURL, "/"), apiVersion, containerID, params.Encode())
}

// MeURL constructs the identity probe URL.
func MeURL(baseURL, apiVersion, accessToken string) string {
	params := url.Values{}
	params.Set("fields", IdentityFields)
	params.Set("access_token", accessToken)

	return fmt.Sprintf("%s/%s/me?%s", strings.TrimRight(baseURL, "/"), apiVersion, params.Encode())
}
