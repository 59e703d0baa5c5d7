package publisher

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igpublisher/pkg/config"
	"igpublisher/pkg/errors"
	"igpublisher/pkg/graph"
	"igpublisher/pkg/logger"
)

// graphServer is an httptest-backed stand-in for the Graph API, tracking
// the container lifecycle the way the platform does.
type graphServer struct {
	mu         sync.Mutex
	nextID     int
	creations  []map[string]string // recorded form params per /media call
	published  []string            // creation_ids passed to media_publish
	pollsLeft  map[string]int      // polls before a container reports FINISHED
	failStatus map[string]string   // containers that report a terminal failure
}

func newGraphServer() *graphServer {
	return &graphServer{
		pollsLeft:  make(map[string]int),
		failStatus: make(map[string]string),
	}
}

func (g *graphServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		require.NoError(t, r.ParseForm())

		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/media"):
			assert.NotEmpty(t, r.PostForm.Get("access_token"))

			params := make(map[string]string)
			for key := range r.PostForm {
				if key != "access_token" {
					params[key] = r.PostForm.Get(key)
				}
			}
			g.creations = append(g.creations, params)

			g.nextID++
			fmt.Fprintf(w, `{"id":"ctr-%d"}`, g.nextID)

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/media_publish"):
			g.published = append(g.published, r.PostForm.Get("creation_id"))
			fmt.Fprint(w, `{"id":"post-555"}`)

		case r.Method == http.MethodGet:
			// Container status query: /v19.0/{containerID}
			parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
			containerID := parts[len(parts)-1]
			assert.Equal(t, graph.StatusFields, r.URL.Query().Get("fields"))

			if status, failed := g.failStatus[containerID]; failed {
				fmt.Fprintf(w, `{"id":%q,"status_code":%q,"status":"platform says no"}`, containerID, status)
				return
			}
			if g.pollsLeft[containerID] > 0 {
				g.pollsLeft[containerID]--
				fmt.Fprintf(w, `{"id":%q,"status_code":"IN_PROGRESS","status":"In progress"}`, containerID)
				return
			}
			fmt.Fprintf(w, `{"id":%q,"status_code":"FINISHED","status":"Finished"}`, containerID)

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	})
}

func newIntegrationPublisher(t *testing.T, server *httptest.Server) *Publisher {
	client := graph.NewClient("test-token", 5*time.Second, logger.NewTestLogger(),
		graph.WithBaseURL(server.URL),
	)
	pacing := &config.PacingConfig{
		CreationDelay:   0,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 4,
	}
	return New(client, pacing, logger.NewTestLogger())
}

func TestPublishCarouselEndToEnd(t *testing.T) {
	gs := newGraphServer()
	server := httptest.NewServer(gs.handler(t))
	defer server.Close()

	// Second container needs two polls before it finishes.
	gs.pollsLeft["ctr-2"] = 2

	p := newIntegrationPublisher(t, server)

	result, err := p.Publish(Request{
		AccountID: "17841400000000000",
		ImageURLs: []string{"https://cdn.test/a.png", "https://cdn.test/b.png", "https://cdn.test/c.png"},
		Caption:   "three slides",
	})

	require.NoError(t, err)
	assert.Equal(t, "post-555", result.PostID)

	// 3 item creations in input order, then the parent.
	require.Len(t, gs.creations, 4)
	assert.Equal(t, "https://cdn.test/a.png", gs.creations[0]["image_url"])
	assert.Equal(t, "https://cdn.test/b.png", gs.creations[1]["image_url"])
	assert.Equal(t, "https://cdn.test/c.png", gs.creations[2]["image_url"])
	for i := 0; i < 3; i++ {
		assert.Equal(t, "true", gs.creations[i]["is_carousel_item"])
		assert.Empty(t, gs.creations[i]["caption"], "item containers must not carry the caption")
	}

	parent := gs.creations[3]
	assert.Equal(t, "CAROUSEL", parent["media_type"])
	assert.Equal(t, "ctr-1,ctr-2,ctr-3", parent["children"])
	assert.Equal(t, "three slides", parent["caption"])

	require.Len(t, gs.published, 1)
	assert.Equal(t, "ctr-4", gs.published[0])
}

func TestPublishSingleImageEndToEnd(t *testing.T) {
	gs := newGraphServer()
	server := httptest.NewServer(gs.handler(t))
	defer server.Close()

	p := newIntegrationPublisher(t, server)

	result, err := p.Publish(Request{
		AccountID: "17841400000000000",
		ImageURLs: []string{"https://cdn.test/solo.png"},
		Caption:   "one slide",
	})

	require.NoError(t, err)
	assert.Equal(t, "post-555", result.PostID)

	require.Len(t, gs.creations, 1)
	assert.Equal(t, "https://cdn.test/solo.png", gs.creations[0]["image_url"])
	assert.Equal(t, "one slide", gs.creations[0]["caption"])
	assert.Empty(t, gs.creations[0]["is_carousel_item"])
	assert.Empty(t, gs.creations[0]["media_type"])

	require.Len(t, gs.published, 1)
	assert.Equal(t, "ctr-1", gs.published[0])
}

func TestPublishEndToEndContainerError(t *testing.T) {
	gs := newGraphServer()
	server := httptest.NewServer(gs.handler(t))
	defer server.Close()

	gs.failStatus["ctr-1"] = graph.StatusError

	p := newIntegrationPublisher(t, server)

	_, err := p.Publish(Request{
		AccountID: "17841400000000000",
		ImageURLs: []string{"https://cdn.test/a.png", "https://cdn.test/b.png"},
		Caption:   "doomed",
	})

	var pubErr *errors.Error
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, errors.ErrorTypeContainerProcessing, pubErr.Type)
	assert.Equal(t, "ctr-1", pubErr.ContainerID)
	assert.Equal(t, "platform says no", pubErr.Status)

	// Neither carousel assembly nor publish happened.
	assert.Len(t, gs.creations, 2)
	assert.Empty(t, gs.published)
}

func TestPublishEndToEndTimeout(t *testing.T) {
	gs := newGraphServer()
	server := httptest.NewServer(gs.handler(t))
	defer server.Close()

	// More pending polls than the budget allows.
	gs.pollsLeft["ctr-1"] = 100

	p := newIntegrationPublisher(t, server)

	_, err := p.Publish(Request{
		AccountID: "17841400000000000",
		ImageURLs: []string{"https://cdn.test/a.png"},
	})

	var pubErr *errors.Error
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, errors.ErrorTypeContainerTimeout, pubErr.Type)
	assert.Equal(t, 4, pubErr.Attempts)
	assert.Empty(t, gs.published)
}
