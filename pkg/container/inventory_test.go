package container

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/stretchr/testify/require"

	dockerContainer "github.com/docker/docker/api/types/container"
	dockerImage "github.com/docker/docker/api/types/image"
	dockerClient "github.com/docker/docker/client"

	"github.com/dockupdate/dockupdate/pkg/types"
)

const (
	testContainerID = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	testImageID     = "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testRepoDigest  = "sha256:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

var _ = ginkgo.Describe("ListInventory", func() {
	var (
		docker     *dockerClient.Client
		mockServer *ghttp.Server
	)

	ginkgo.BeforeEach(func() {
		mockServer = ghttp.NewServer()

		var err error
		docker, err = dockerClient.NewClientWithOpts(
			dockerClient.WithHost(mockServer.URL()),
			dockerClient.WithHTTPClient(mockServer.HTTPTestServer.Client()))
		require.NoError(ginkgo.GinkgoT(), err)
	})

	ginkgo.AfterEach(func() {
		mockServer.Close()
	})

	summary := dockerContainer.Summary{
		ID:      testContainerID,
		Names:   []string{"/web"},
		Image:   "nginx",
		ImageID: testImageID,
		State:   "running",
		Status:  "Up 3 hours",
		Labels:  map[string]string{"tier": "front"},
	}

	// Helper function to verify filters in request
	listHandler := func(expectedStatuses []string, containers ...dockerContainer.Summary) http.HandlerFunc {
		return ghttp.CombineHandlers(
			ghttp.VerifyRequest("GET", gomega.MatchRegexp("^/v[0-9.]+/containers/json$")),
			func(w http.ResponseWriter, r *http.Request) {
				var filters map[string]map[string]bool
				gomega.Expect(json.Unmarshal([]byte(r.URL.Query().Get("filters")), &filters)).To(gomega.Succeed())

				actualStatuses := make([]string, 0, len(filters["status"]))
				for status := range filters["status"] {
					actualStatuses = append(actualStatuses, status)
				}

				gomega.Expect(actualStatuses).To(gomega.ConsistOf(expectedStatuses))

				ghttp.RespondWithJSONEncoded(http.StatusOK, containers)(w, r)
			},
		)
	}

	containerInspect := func(image string, labels map[string]string) http.HandlerFunc {
		return ghttp.CombineHandlers(
			ghttp.VerifyRequest("GET", gomega.MatchRegexp(fmt.Sprintf("^/v[0-9.]+/containers/%s/json$", testContainerID))),
			ghttp.RespondWithJSONEncoded(http.StatusOK, dockerContainer.InspectResponse{
				ContainerJSONBase: &dockerContainer.ContainerJSONBase{
					ID:    testContainerID,
					Name:  "/web",
					Image: testImageID,
					State: &dockerContainer.State{Status: "running", Running: true},
				},
				Config: &dockerContainer.Config{Image: image, Labels: labels},
			}),
		)
	}

	imageInspect := func(repoDigests ...string) http.HandlerFunc {
		return ghttp.CombineHandlers(
			ghttp.VerifyRequest("GET", gomega.MatchRegexp("^/v[0-9.]+/images/"+testImageID+"/json$")),
			ghttp.RespondWithJSONEncoded(http.StatusOK, dockerImage.InspectResponse{
				ID:          testImageID,
				RepoDigests: repoDigests,
			}),
		)
	}

	notFound := ghttp.RespondWithJSONEncoded(http.StatusNotFound, map[string]string{"message": "No such object"})

	ginkgo.It("should build an inventory item from inspect data", func() {
		mockServer.AppendHandlers(
			listHandler([]string{"running"}, summary),
			containerInspect("nginx:1.27", map[string]string{EnableLabel: "true"}),
			imageInspect("nginx@"+testRepoDigest, "mirror/nginx@sha256:cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"),
		)

		items, err := ListInventory(context.Background(), docker, ClientOptions{}, nil)

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(items).To(gomega.Equal([]types.InventoryItem{{
			ID:          testContainerID,
			Name:        "web",
			Status:      "Up 3 hours",
			State:       "running",
			Image:       "nginx:1.27",
			LocalDigest: testRepoDigest,
			Labels:      map[string]string{EnableLabel: "true"},
		}}))
	})

	ginkgo.It("should widen the status filter when stopped containers are included", func() {
		mockServer.AppendHandlers(listHandler([]string{"running", "created", "exited", "restarting"}))

		items, err := ListInventory(context.Background(), docker, ClientOptions{
			IncludeStopped:    true,
			IncludeRestarting: true,
		}, nil)

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(items).To(gomega.BeEmpty())
	})

	ginkgo.It("should leave the local digest unknown for images without repo digests", func() {
		mockServer.AppendHandlers(
			listHandler([]string{"running"}, summary),
			containerInspect("local/build:dev", nil),
			imageInspect(),
		)

		items, err := ListInventory(context.Background(), docker, ClientOptions{}, nil)

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(items).To(gomega.HaveLen(1))
		gomega.Expect(items[0].LocalDigest).To(gomega.BeEmpty())
		gomega.Expect(items[0].Labels).To(gomega.HaveKeyWithValue("tier", "front"))
	})

	ginkgo.It("should fall back to list data when inspection fails", func() {
		mockServer.AppendHandlers(
			listHandler([]string{"running"}, summary),
			notFound,
			notFound,
		)

		items, err := ListInventory(context.Background(), docker, ClientOptions{}, nil)

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(items).To(gomega.HaveLen(1))
		gomega.Expect(items[0].Image).To(gomega.Equal("nginx"))
		gomega.Expect(items[0].LocalDigest).To(gomega.BeEmpty())
	})

	ginkgo.It("should apply the filter after inspection", func() {
		mockServer.AppendHandlers(
			listHandler([]string{"running"}, summary),
			containerInspect("nginx:1.27", map[string]string{EnableLabel: "false"}),
			imageInspect("nginx@"+testRepoDigest),
		)

		items, err := ListInventory(context.Background(), docker, ClientOptions{}, func(item types.InventoryItem) bool {
			enabled, ok := Enabled(item)

			return !ok || enabled
		})

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(items).To(gomega.BeEmpty())
	})

	ginkgo.It("should report the inventory as unavailable when listing fails", func() {
		mockServer.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, `{"message":"daemon down"}`))

		client := NewClientWithAPI(docker, ClientOptions{})
		items, err := client.ListContainers(context.Background(), nil)

		gomega.Expect(err).To(gomega.MatchError(ErrInventoryUnavailable))
		gomega.Expect(items).To(gomega.BeNil())
	})
})

var _ = ginkgo.Describe("Enabled", func() {
	ginkgo.DescribeTable("label parsing",
		func(labels map[string]string, expectedValue, expectedPresent bool) {
			value, present := Enabled(types.InventoryItem{Name: "web", Labels: labels})

			gomega.Expect(value).To(gomega.Equal(expectedValue))
			gomega.Expect(present).To(gomega.Equal(expectedPresent))
		},
		ginkgo.Entry("absent", nil, false, false),
		ginkgo.Entry("true", map[string]string{EnableLabel: "true"}, true, true),
		ginkgo.Entry("false", map[string]string{EnableLabel: "false"}, false, true),
		ginkgo.Entry("invalid", map[string]string{EnableLabel: "maybe"}, false, false),
	)
})
