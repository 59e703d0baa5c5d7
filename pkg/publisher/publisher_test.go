package publisher

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igpublisher/pkg/config"
	"igpublisher/pkg/errors"
	"igpublisher/pkg/graph"
	"igpublisher/pkg/logger"
)

type createCall struct {
	accountID    string
	imageURL     string
	caption      string
	carouselItem bool
}

type carouselCall struct {
	accountID string
	children  []string
	caption   string
}

type publishCall struct {
	accountID  string
	creationID string
}

// fakeGraph records every call so tests can assert on call counts and order.
type fakeGraph struct {
	nextID     int
	creates    []createCall
	carousels  []carouselCall
	publishes  []publishCall
	polls      map[string]int
	totalCalls int

	// statuses maps a container id to the sequence of status codes its
	// polls return; the last entry repeats once exhausted. Containers
	// without an entry report FINISHED immediately.
	statuses map[string][]string

	createErr   error
	carouselErr error
	statusErr   error
	publishErr  error

	identity *graph.Identity
	meErr    error

	postID string
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		polls:    make(map[string]int),
		statuses: make(map[string][]string),
		postID:   "post-900",
	}
}

func (f *fakeGraph) CreateImageContainer(accountID, imageURL, caption string, carouselItem bool) (string, error) {
	f.totalCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	f.creates = append(f.creates, createCall{accountID, imageURL, caption, carouselItem})
	f.nextID++
	return fmt.Sprintf("container-%d", f.nextID), nil
}

func (f *fakeGraph) CreateCarouselContainer(accountID string, children []string, caption string) (string, error) {
	f.totalCalls++
	if f.carouselErr != nil {
		return "", f.carouselErr
	}
	kids := make([]string, len(children))
	copy(kids, children)
	f.carousels = append(f.carousels, carouselCall{accountID, kids, caption})
	return "carousel-parent", nil
}

func (f *fakeGraph) ContainerStatus(containerID string) (*graph.ContainerStatusResponse, error) {
	f.totalCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}

	seq, ok := f.statuses[containerID]
	code := graph.StatusFinished
	if ok && len(seq) > 0 {
		idx := f.polls[containerID]
		if idx >= len(seq) {
			idx = len(seq) - 1
		}
		code = seq[idx]
	}
	f.polls[containerID]++

	return &graph.ContainerStatusResponse{
		ID:         containerID,
		StatusCode: code,
		Status:     code,
	}, nil
}

func (f *fakeGraph) PublishContainer(accountID, creationID string) (string, error) {
	f.totalCalls++
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.publishes = append(f.publishes, publishCall{accountID, creationID})
	return f.postID, nil
}

func (f *fakeGraph) Me() (*graph.Identity, error) {
	f.totalCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.identity, nil
}

func newTestPublisher(fake *fakeGraph) *Publisher {
	pacing := &config.PacingConfig{
		CreationDelay:   0,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 5,
	}
	p := New(fake, pacing, logger.NewTestLogger())
	p.sleep = func(time.Duration) {}
	return p
}

func TestPublishSimulate(t *testing.T) {
	fake := newFakeGraph()
	p := newTestPublisher(fake)

	result, err := p.Publish(Request{
		AccountID: "acct",
		ImageURLs: []string{"https://img.test/u1.png", "https://img.test/u2.png"},
		Caption:   "caption",
		Simulate:  true,
	})

	require.NoError(t, err)
	assert.Equal(t, SimulatedPostID, result.PostID)
	assert.True(t, result.Simulated)
	assert.Zero(t, fake.totalCalls, "simulate mode must make no network calls")
}

func TestPublishNoValidMedia(t *testing.T) {
	tests := []struct {
		name     string
		urls     []string
		simulate bool
	}{
		{"empty list", nil, false},
		{"all empty entries", []string{"", "", ""}, false},
		{"empty list in simulate mode", nil, true},
		{"all empty entries in simulate mode", []string{"", ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeGraph()
			p := newTestPublisher(fake)

			result, err := p.Publish(Request{
				AccountID: "acct",
				ImageURLs: tt.urls,
				Caption:   "caption",
				Simulate:  tt.simulate,
			})

			assert.Nil(t, result)
			var pubErr *errors.Error
			require.ErrorAs(t, err, &pubErr)
			assert.Equal(t, errors.ErrorTypeNoValidMedia, pubErr.Type)
			assert.Zero(t, fake.totalCalls)
		})
	}
}

func TestPublishTooManyImages(t *testing.T) {
	fake := newFakeGraph()
	p := newTestPublisher(fake)

	urls := make([]string, graph.MaxCarouselChildren+1)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://img.test/u%d.png", i)
	}

	_, err := p.Publish(Request{AccountID: "acct", ImageURLs: urls})

	var pubErr *errors.Error
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, errors.ErrorTypeNoValidMedia, pubErr.Type)
	assert.Zero(t, fake.totalCalls)
}

func TestPublishSingleImage(t *testing.T) {
	fake := newFakeGraph()
	p := newTestPublisher(fake)

	result, err := p.Publish(Request{
		AccountID: "acct",
		ImageURLs: []string{"https://img.test/u1.png"},
		Caption:   "my caption",
	})

	require.NoError(t, err)
	assert.Equal(t, "post-900", result.PostID)

	// Exactly one creation call, carrying the caption, not marked as a
	// carousel item; no carousel assembly happens.
	require.Len(t, fake.creates, 1)
	assert.Equal(t, "my caption", fake.creates[0].caption)
	assert.False(t, fake.creates[0].carouselItem)
	assert.Empty(t, fake.carousels)

	require.Len(t, fake.publishes, 1)
	assert.Equal(t, "container-1", fake.publishes[0].creationID)
}

func TestPublishFiltersEmptyEntries(t *testing.T) {
	fake := newFakeGraph()
	p := newTestPublisher(fake)

	result, err := p.Publish(Request{
		AccountID: "acct",
		ImageURLs: []string{"", "https://img.test/u1.png", ""},
		Caption:   "caption",
	})

	require.NoError(t, err)
	assert.Equal(t, "post-900", result.PostID)

	// Behaves identically to a one-URL request: single-image path.
	require.Len(t, fake.creates, 1)
	assert.Equal(t, "https://img.test/u1.png", fake.creates[0].imageURL)
	assert.False(t, fake.creates[0].carouselItem)
	assert.Empty(t, fake.carousels)
}

func TestPublishCarousel(t *testing.T) {
	fake := newFakeGraph()
	p := newTestPublisher(fake)

	result, err := p.Publish(Request{
		AccountID: "acct",
		ImageURLs: []string{"u1", "u2", "u3"},
		Caption:   "caption",
	})

	require.NoError(t, err)
	assert.Equal(t, "post-900", result.PostID)

	// Exactly 3 item creations in input order, no caption on items.
	require.Len(t, fake.creates, 3)
	for i, expected := range []string{"u1", "u2", "u3"} {
		assert.Equal(t, expected, fake.creates[i].imageURL)
		assert.True(t, fake.creates[i].carouselItem)
		assert.Empty(t, fake.creates[i].caption)
	}

	// One parent referencing the children in order, carrying the caption.
	require.Len(t, fake.carousels, 1)
	assert.Equal(t, []string{"container-1", "container-2", "container-3"}, fake.carousels[0].children)
	assert.Equal(t, "caption", fake.carousels[0].caption)

	// One publish call against the parent.
	require.Len(t, fake.publishes, 1)
	assert.Equal(t, "carousel-parent", fake.publishes[0].creationID)
}

func TestPublishContainerProcessingError(t *testing.T) {
	fake := newFakeGraph()
	fake.statuses["container-2"] = []string{graph.StatusInProgress, graph.StatusError}
	p := newTestPublisher(fake)

	_, err := p.Publish(Request{
		AccountID: "acct",
		ImageURLs: []string{"u1", "u2"},
		Caption:   "caption",
	})

	var pubErr *errors.Error
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, errors.ErrorTypeContainerProcessing, pubErr.Type)
	assert.Equal(t, "container-2", pubErr.ContainerID)

	// The publish step must never be reached.
	assert.Empty(t, fake.publishes)
	assert.Empty(t, fake.carousels)
}

func TestPublishContainerTimeout(t *testing.T) {
	fake := newFakeGraph()
	fake.statuses["container-1"] = []string{graph.StatusInProgress}
	p := newTestPublisher(fake)

	_, err := p.Publish(Request{
		AccountID: "acct",
		ImageURLs: []string{"u1"},
		Caption:   "caption",
	})

	var pubErr *errors.Error
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, errors.ErrorTypeContainerTimeout, pubErr.Type)
	assert.Equal(t, "container-1", pubErr.ContainerID)
	assert.Equal(t, 5, pubErr.Attempts)
	assert.Equal(t, 5, fake.polls["container-1"])
	assert.Empty(t, fake.publishes)
}

func TestPublishExpiredContainerIsTerminal(t *testing.T) {
	fake := newFakeGraph()
	fake.statuses["container-1"] = []string{graph.StatusExpired}
	p := newTestPublisher(fake)

	_, err := p.Publish(Request{
		AccountID: "acct",
		ImageURLs: []string{"u1"},
	})

	var pubErr *errors.Error
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, errors.ErrorTypeContainerProcessing, pubErr.Type)
}

func TestPublishRemoteErrorAborts(t *testing.T) {
	fake := newFakeGraph()
	fake.createErr = errors.NewRemoteAPI("invalid image url", 100)
	p := newTestPublisher(fake)

	_, err := p.Publish(Request{
		AccountID: "acct",
		ImageURLs: []string{"u1", "u2"},
	})

	var pubErr *errors.Error
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, errors.ErrorTypeRemoteAPI, pubErr.Type)
	assert.Empty(t, fake.publishes)
}

func TestPublishRequiresAccountID(t *testing.T) {
	fake := newFakeGraph()
	p := newTestPublisher(fake)

	_, err := p.Publish(Request{
		ImageURLs: []string{"u1"},
	})

	require.Error(t, err)
	assert.Zero(t, fake.totalCalls)
}

func TestResolveAccountID(t *testing.T) {
	t.Run("business account", func(t *testing.T) {
		fake := newFakeGraph()
		fake.identity = &graph.Identity{ID: "17841400000000000", Username: "brand", AccountType: "BUSINESS"}
		p := newTestPublisher(fake)

		id, err := p.ResolveAccountID()
		require.NoError(t, err)
		assert.Equal(t, "17841400000000000", id)
	})

	t.Run("creator account", func(t *testing.T) {
		fake := newFakeGraph()
		fake.identity = &graph.Identity{ID: "42", Username: "creator", AccountType: "MEDIA_CREATOR"}
		p := newTestPublisher(fake)

		id, err := p.ResolveAccountID()
		require.NoError(t, err)
		assert.Equal(t, "42", id)
	})

	t.Run("personal account", func(t *testing.T) {
		fake := newFakeGraph()
		fake.identity = &graph.Identity{ID: "42", Username: "person", AccountType: "PERSONAL"}
		p := newTestPublisher(fake)

		_, err := p.ResolveAccountID()
		var pubErr *errors.Error
		require.ErrorAs(t, err, &pubErr)
		assert.Equal(t, errors.ErrorTypeAccountNotFound, pubErr.Type)
	})

	t.Run("probe error propagates", func(t *testing.T) {
		fake := newFakeGraph()
		fake.meErr = errors.NewInvalidCredential("token expired")
		p := newTestPublisher(fake)

		_, err := p.ResolveAccountID()
		var pubErr *errors.Error
		require.ErrorAs(t, err, &pubErr)
		assert.Equal(t, errors.ErrorTypeInvalidCredential, pubErr.Type)
	})
}

func TestValidateCredential(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		fake := newFakeGraph()
		fake.identity = &graph.Identity{ID: "42", Username: "brand", AccountType: "BUSINESS"}
		p := newTestPublisher(fake)

		status := p.ValidateCredential()
		assert.True(t, status.Valid)
		assert.Equal(t, "brand", status.Username)
		assert.Empty(t, status.Reason)
	})

	t.Run("invalid never returns an error", func(t *testing.T) {
		fake := newFakeGraph()
		fake.meErr = errors.NewInvalidCredential("token expired")
		p := newTestPublisher(fake)

		status := p.ValidateCredential()
		assert.False(t, status.Valid)
		assert.Equal(t, "token expired", status.Reason)
	})
}

func TestFilterImageURLs(t *testing.T) {
	assert.Empty(t, filterImageURLs(nil))
	assert.Empty(t, filterImageURLs([]string{"", ""}))
	assert.Equal(t, []string{"a", "b"}, filterImageURLs([]string{"", "a", "", "b"}))
}
