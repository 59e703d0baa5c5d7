package publisher

import (
	"fmt"
	"time"

	"igpublisher/pkg/config"
	"igpublisher/pkg/errors"
	"igpublisher/pkg/graph"
	"igpublisher/pkg/logger"
	"igpublisher/pkg/ratelimit"
)

// SimulatedPostID is the sentinel post id returned by simulate-mode runs.
const SimulatedPostID = "simulated-post"

// Request describes one post to publish. ImageURLs is ordered and the
// order is preserved end-to-end: slide order equals carousel order. Empty
// entries mark upstream upload failures and are dropped before publishing.
type Request struct {
	AccountID string
	ImageURLs []string
	Caption   string
	Simulate  bool
}

// Result carries the outcome of a successful publish.
type Result struct {
	PostID    string
	Simulated bool
}

// Publisher drives the multi-step Graph API publish protocol: per-image
// container creation, processing-completion polling, carousel assembly,
// and publish. It holds no durable local state; all entities live on the
// platform and are referenced by opaque ids.
type Publisher struct {
	client          GraphAPI
	pacer           ratelimit.Limiter
	pollInterval    time.Duration
	maxPollAttempts int
	sleep           func(time.Duration)
	logger          logger.Logger
}

// New creates a Publisher with the given Graph client and pacing settings.
func New(client GraphAPI, pacing *config.PacingConfig, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.GetLogger()
	}
	if pacing == nil {
		pacing = &config.DefaultConfig().Pacing
	}

	return &Publisher{
		client:          client,
		pacer:           ratelimit.NewPacer(pacing.CreationDelay),
		pollInterval:    pacing.PollInterval,
		maxPollAttempts: pacing.MaxPollAttempts,
		sleep:           time.Sleep,
		logger:          log,
	}
}

// Publish runs the publish state machine for one post and returns the live
// post id. Steps are strictly sequential and no remote call is retried: the
// first failure aborts the whole sequence, and containers created before the
// failure are left for the platform to expire.
//
// Publishing is not idempotent. Calling Publish twice with identical
// arguments creates two posts; the protocol offers no idempotency key.
func (p *Publisher) Publish(req Request) (*Result, error) {
	urls := filterImageURLs(req.ImageURLs)
	if len(urls) == 0 {
		return nil, errors.NewNoValidMedia("no usable image URLs in request")
	}
	if len(urls) > graph.MaxCarouselChildren {
		return nil, errors.NewNoValidMedia(
			fmt.Sprintf("%d images exceed the platform limit of %d carousel items", len(urls), graph.MaxCarouselChildren))
	}

	if req.Simulate {
		p.logger.InfoWithFields("simulate mode, skipping publish", map[string]interface{}{
			"account_id": req.AccountID,
			"images":     len(urls),
		})
		return &Result{PostID: SimulatedPostID, Simulated: true}, nil
	}

	if req.AccountID == "" {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: "account id is required",
		}
	}

	if len(urls) == 1 {
		return p.publishSingle(req.AccountID, urls[0], req.Caption)
	}
	return p.publishCarousel(req.AccountID, urls, req.Caption)
}

// publishSingle posts one image directly. The carousel API requires at
// least two children, so a 1-slide post degrades to a plain image post
// with the caption attached to its only container.
func (p *Publisher) publishSingle(accountID, imageURL, caption string) (*Result, error) {
	p.logger.InfoWithFields("publishing single image", map[string]interface{}{
		"account_id": accountID,
	})

	containerID, err := p.client.CreateImageContainer(accountID, imageURL, caption, false)
	if err != nil {
		return nil, err
	}

	if err := p.waitForContainer(containerID); err != nil {
		return nil, err
	}

	postID, err := p.client.PublishContainer(accountID, containerID)
	if err != nil {
		return nil, err
	}

	p.logger.InfoWithFields("single image published", map[string]interface{}{
		"account_id": accountID,
		"post_id":    postID,
	})

	return &Result{PostID: postID}, nil
}

// publishCarousel drives the full carousel protocol: ordered item
// containers, per-container polling, parent assembly, parent polling,
// publish. Item creation calls are paced with a flat inter-call delay.
func (p *Publisher) publishCarousel(accountID string, urls []string, caption string) (*Result, error) {
	p.logger.InfoWithFields("publishing carousel", map[string]interface{}{
		"account_id": accountID,
		"images":     len(urls),
	})

	// Item containers carry no caption; the platform only honors the
	// caption on the parent.
	childIDs := make([]string, 0, len(urls))
	for i, imageURL := range urls {
		p.pacer.Wait()

		containerID, err := p.client.CreateImageContainer(accountID, imageURL, "", true)
		if err != nil {
			return nil, err
		}

		p.logger.DebugWithFields("carousel item container created", map[string]interface{}{
			"account_id":   accountID,
			"container_id": containerID,
			"position":     i + 1,
		})
		childIDs = append(childIDs, containerID)
	}

	for _, containerID := range childIDs {
		if err := p.waitForContainer(containerID); err != nil {
			return nil, err
		}
	}

	parentID, err := p.client.CreateCarouselContainer(accountID, childIDs, caption)
	if err != nil {
		return nil, err
	}

	if err := p.waitForContainer(parentID); err != nil {
		return nil, err
	}

	postID, err := p.client.PublishContainer(accountID, parentID)
	if err != nil {
		return nil, err
	}

	p.logger.InfoWithFields("carousel published", map[string]interface{}{
		"account_id": accountID,
		"post_id":    postID,
		"images":     len(urls),
	})

	return &Result{PostID: postID}, nil
}

// waitForContainer polls a container until it reaches FINISHED, fails
// with a terminal status, or exhausts the polling budget. The wait is a
// blocking loop with a fixed interval between attempts.
func (p *Publisher) waitForContainer(containerID string) error {
	for attempt := 1; attempt <= p.maxPollAttempts; attempt++ {
		status, err := p.client.ContainerStatus(containerID)
		if err != nil {
			return err
		}

		switch status.StatusCode {
		case graph.StatusFinished:
			return nil
		case graph.StatusError, graph.StatusExpired:
			p.logger.ErrorWithFields("container processing failed", map[string]interface{}{
				"container_id": containerID,
				"status_code":  status.StatusCode,
				"status":       status.Status,
			})
			return errors.NewContainerProcessing(containerID, statusText(status))
		}

		// PENDING or IN_PROGRESS: keep polling.
		if attempt < p.maxPollAttempts {
			p.sleep(p.pollInterval)
		}
	}

	p.logger.ErrorWithFields("container polling budget exhausted", map[string]interface{}{
		"container_id": containerID,
		"attempts":     p.maxPollAttempts,
	})
	return errors.NewContainerTimeout(containerID, p.maxPollAttempts)
}

// ResolveAccountID looks up the business account id linked to the
// credential. A valid credential without a business or creator account
// fails with an account_not_found error.
func (p *Publisher) ResolveAccountID() (string, error) {
	identity, err := p.client.Me()
	if err != nil {
		return "", err
	}

	if identity.ID == "" || !isBusinessAccount(identity.AccountType) {
		return "", errors.NewAccountNotFound(
			fmt.Sprintf("credential is not linked to a business or creator account (account_type %q)", identity.AccountType))
	}

	p.logger.DebugWithFields("resolved account", map[string]interface{}{
		"account_id": identity.ID,
		"username":   identity.Username,
	})

	return identity.ID, nil
}

// CredentialStatus is the result of a credential probe.
type CredentialStatus struct {
	Valid    bool
	Username string
	Reason   string
}

// ValidateCredential probes the credential with a read-only identity call.
// It never returns a Go error; failures are reported in the status so
// callers can decide whether to proceed at all.
func (p *Publisher) ValidateCredential() CredentialStatus {
	identity, err := p.client.Me()
	if err != nil {
		p.logger.WarnWithFields("credential probe failed", map[string]interface{}{
			"error": err.Error(),
		})
		return CredentialStatus{Valid: false, Reason: reasonFromError(err)}
	}

	return CredentialStatus{Valid: true, Username: identity.Username}
}

// filterImageURLs drops empty entries, which mark upstream upload failures.
func filterImageURLs(urls []string) []string {
	filtered := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

func isBusinessAccount(accountType string) bool {
	switch accountType {
	case "BUSINESS", "MEDIA_CREATOR", "CREATOR":
		return true
	default:
		return false
	}
}

func statusText(status *graph.ContainerStatusResponse) string {
	if status.Status != "" {
		return status.Status
	}
	return status.StatusCode
}

func reasonFromError(err error) string {
	if e, ok := err.(*errors.Error); ok {
		return e.Message
	}
	return err.Error()
}
