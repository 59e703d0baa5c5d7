// Package graph provides a client for the Instagram Graph API publishing
// surface.
//
// This package includes:
//   - A configurable HTTP client with rate limiting and error handling
//   - Type-safe models for Graph API responses
//   - Helper functions for constructing API endpoints
//
// The client speaks the four operations the publish protocol needs:
// container creation (single image, carousel item, carousel parent),
// container status queries, media_publish, and the /me identity probe.
// A response containing an error object is treated as a failure regardless
// of the HTTP status code.
//
// Example usage:
//
//	client := graph.NewClient(token, 30*time.Second, log)
//
//	id, err := client.CreateImageContainer(accountID, imageURL, caption, false)
//	if err != nil {
//	    if gErr, ok := err.(*errors.Error); ok {
//	        switch gErr.Type {
//	        case errors.ErrorTypeInvalidCredential:
//	            // Token rejected
//	        case errors.ErrorTypeRemoteAPI:
//	            // Platform refused the request
//	        }
//	    }
//	}
package graph
