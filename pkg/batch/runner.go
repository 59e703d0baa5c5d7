// Package batch publishes a sequence of posts one at a time with a
// cooldown between them. Failures are per-post, not fatal to a run.
package batch

import (
	"time"

	"igpublisher/pkg/logger"
	"igpublisher/pkg/publisher"
)

// CarouselPublisher is the publishing operation the runner drives.
type CarouselPublisher interface {
	Publish(req publisher.Request) (*publisher.Result, error)
}

// Post is one content item ready to publish: ordered image URLs plus
// caption text.
type Post struct {
	ImageURLs []string
	Caption   string
}

// Outcome records the result of one post in a run.
type Outcome struct {
	Index  int
	PostID string
	Err    error
}

// Runner publishes posts sequentially against one account.
type Runner struct {
	publisher CarouselPublisher
	accountID string
	cooldown  time.Duration
	simulate  bool
	sleep     func(time.Duration)
	logger    logger.Logger
}

// NewRunner creates a batch runner. cooldown is the pause between
// consecutive posts; it is not applied after the last one.
func NewRunner(pub CarouselPublisher, accountID string, cooldown time.Duration, simulate bool, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Runner{
		publisher: pub,
		accountID: accountID,
		cooldown:  cooldown,
		simulate:  simulate,
		sleep:     time.Sleep,
		logger:    log,
	}
}

// Run publishes every post in order. A failed post is recorded and the
// run continues with the next one.
func (r *Runner) Run(posts []Post) []Outcome {
	outcomes := make([]Outcome, 0, len(posts))

	for i, post := range posts {
		if i > 0 && r.cooldown > 0 {
			r.logger.DebugWithFields("cooling down before next post", map[string]interface{}{
				"cooldown": r.cooldown,
			})
			r.sleep(r.cooldown)
		}

		result, err := r.publisher.Publish(publisher.Request{
			AccountID: r.accountID,
			ImageURLs: post.ImageURLs,
			Caption:   post.Caption,
			Simulate:  r.simulate,
		})

		outcome := Outcome{Index: i}
		if err != nil {
			outcome.Err = err
			r.logger.ErrorWithFields("post failed", map[string]interface{}{
				"index": i,
				"error": err.Error(),
			})
		} else {
			outcome.PostID = result.PostID
			r.logger.InfoWithFields("post published", map[string]interface{}{
				"index":   i,
				"post_id": result.PostID,
			})
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

// Summarize counts successes and failures in a run.
func Summarize(outcomes []Outcome) (succeeded, failed int) {
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}
