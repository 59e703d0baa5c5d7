package publisher

import "igpublisher/pkg/graph"

// GraphAPI defines the interface for the Graph API operations the
// publish protocol consumes.
type GraphAPI interface {
	CreateImageContainer(accountID, imageURL, caption string, carouselItem bool) (string, error)
	CreateCarouselContainer(accountID string, children []string, caption string) (string, error)
	ContainerStatus(containerID string) (*graph.ContainerStatusResponse, error)
	PublishContainer(accountID, creationID string) (string, error)
	Me() (*graph.Identity, error)
}
