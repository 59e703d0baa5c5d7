// Package publisher implements the carousel publishing state machine over
// the Instagram Graph API.
//
// One call to Publish drives one post to completion or failure:
//
//	filter empty URLs -> simulate short-circuit -> single-image or carousel
//	path -> per-container status polling -> carousel assembly -> publish
//
// The publisher is a pure request/poll/sequence driver. It holds no local
// state across calls, runs strictly sequentially (no parallel container
// creation or polling), and never retries a remote call; the only temporal
// tolerance is the bounded status-polling loop, which exists because
// container processing is asynchronous on the platform side.
package publisher
