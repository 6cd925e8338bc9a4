package check_test

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/dockupdate/dockupdate/pkg/check"
	"github.com/dockupdate/dockupdate/pkg/metrics"
	"github.com/dockupdate/dockupdate/pkg/registry"
	"github.com/dockupdate/dockupdate/pkg/registry/digest"
	"github.com/dockupdate/dockupdate/pkg/types"
)

const (
	localDigest  = "sha256:1111111111111111111111111111111111111111111111111111111111111111"
	remoteDigest = "sha256:2222222222222222222222222222222222222222222222222222222222222222"
)

type failureCounter struct {
	mu     sync.Mutex
	stages map[string]int
}

func (f *failureCounter) RegistryFailure(stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stages == nil {
		f.stages = map[string]int{}
	}

	f.stages[stage]++
}

func (f *failureCounter) count(stage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stages[stage]
}

var _ = ginkgo.DescribeTable("UpdateAvailable",
	func(local, remote string, expected bool) {
		gomega.Expect(check.UpdateAvailable(local, remote)).To(gomega.Equal(expected))
	},
	ginkgo.Entry("equal digests", "sha256:AA", "sha256:AA", false),
	ginkgo.Entry("different digests", "sha256:AA", "sha256:BB", true),
	ginkgo.Entry("same digest with and without algorithm", "sha256:AA", "AA", false),
	ginkgo.Entry("unknown local digest", "", "sha256:BB", false),
	ginkgo.Entry("unknown remote digest", "sha256:AA", "", false),
	ginkgo.Entry("both unknown", "", "", false),
)

var _ = ginkgo.Describe("Checker", func() {
	var (
		server   *ghttp.Server
		profiles registry.Profiles
		failures *failureCounter
		checker  *check.Checker
	)

	ginkgo.BeforeEach(func() {
		server = ghttp.NewServer()
		server.SetAllowUnhandledRequests(true)
		server.SetUnhandledRequestStatusCode(http.StatusNotFound)

		fake := registry.Profile{
			Kind:          registry.KindGHCR,
			Prefix:        "ghcr.io/",
			CanonicalHost: "ghcr.io",
			AuthRealm:     server.URL() + "/token",
			Service:       "ghcr.io",
			APIBase:       server.URL() + "/v2",
		}
		profiles = registry.Profiles{Known: []registry.Profile{fake}, Default: fake}
		failures = &failureCounter{}
		checker = check.New(registry.NewClient(),
			check.WithProfiles(profiles),
			check.WithConcurrency(4),
			check.WithFailureRecorder(failures),
		)

		server.RouteToHandler(http.MethodGet, "/token", func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Query().Get("scope"), "org/broken") {
				w.WriteHeader(http.StatusInternalServerError)

				return
			}

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"anonymous"}`))
		})
		server.RouteToHandler(http.MethodHead, "/v2/org/app/manifests/1.0.0",
			ghttp.CombineHandlers(
				ghttp.VerifyHeaderKV("Authorization", "Bearer anonymous"),
				ghttp.RespondWith(http.StatusOK, nil, http.Header{digest.ContentDigestHeader: []string{remoteDigest}}),
			),
		)
		server.RouteToHandler(http.MethodGet, "/v2/org/app/tags/list",
			ghttp.RespondWith(http.StatusOK, `{"name":"org/app","tags":["latest","1.0.0","1.10.0","1.9.0"]}`),
		)
	})

	ginkgo.AfterEach(func() {
		server.Close()
	})

	ginkgo.It("should report an update when the remote digest differs", func() {
		status := checker.Resolve(context.Background(), types.InventoryItem{
			ID:          "abc",
			Name:        "app",
			State:       "running",
			Image:       "ghcr.io/org/app:1.0.0",
			LocalDigest: localDigest,
		})

		gomega.Expect(status.CurrentTag).To(gomega.Equal("1.0.0"))
		gomega.Expect(status.RemoteDigest).To(gomega.Equal(remoteDigest))
		gomega.Expect(status.LatestVersionTag).To(gomega.Equal("1.10.0"))
		gomega.Expect(status.UpdateAvailable).To(gomega.BeTrue())
	})

	ginkgo.It("should not report an update for matching digests", func() {
		status := checker.Resolve(context.Background(), types.InventoryItem{
			Name:        "app",
			Image:       "ghcr.io/org/app:1.0.0",
			LocalDigest: remoteDigest,
		})

		gomega.Expect(status.UpdateAvailable).To(gomega.BeFalse())
	})

	ginkgo.It("should not report an update without a local digest", func() {
		status := checker.Resolve(context.Background(), types.InventoryItem{
			Name:  "app",
			Image: "ghcr.io/org/app:1.0.0",
		})

		gomega.Expect(status.RemoteDigest).To(gomega.Equal(remoteDigest))
		gomega.Expect(status.UpdateAvailable).To(gomega.BeFalse())
	})

	ginkgo.It("should acquire a token for each lookup", func() {
		checker.Resolve(context.Background(), types.InventoryItem{Name: "app", Image: "ghcr.io/org/app:1.0.0"})

		tokenRequests := 0

		for _, req := range server.ReceivedRequests() {
			if req.URL.Path == "/token" {
				tokenRequests++
			}
		}

		gomega.Expect(tokenRequests).To(gomega.Equal(2))
	})

	ginkgo.It("should isolate a token failure to its own container", func() {
		items := []types.InventoryItem{
			{ID: "1", Name: "broken", Image: "ghcr.io/org/broken:1.0.0", LocalDigest: localDigest},
			{ID: "2", Name: "app", Image: "ghcr.io/org/app:1.0.0", LocalDigest: localDigest},
		}

		report := checker.Check(context.Background(), items)

		gomega.Expect(report.Checked()).To(gomega.HaveLen(2))

		broken, app := report.Checked()[0], report.Checked()[1]
		gomega.Expect(broken.Name).To(gomega.Equal("broken"))
		gomega.Expect(broken.RemoteDigest).To(gomega.BeEmpty())
		gomega.Expect(broken.LatestVersionTag).To(gomega.BeEmpty())
		gomega.Expect(broken.UpdateAvailable).To(gomega.BeFalse())

		gomega.Expect(app.Name).To(gomega.Equal("app"))
		gomega.Expect(app.RemoteDigest).To(gomega.Equal(remoteDigest))
		gomega.Expect(app.UpdateAvailable).To(gomega.BeTrue())

		gomega.Expect(report.UpdatesAvailable()).To(gomega.HaveLen(1))
		gomega.Expect(report.Unknown()).To(gomega.HaveLen(1))
		gomega.Expect(failures.count(metrics.StageToken)).To(gomega.Equal(2))
	})

	ginkgo.It("should count digest and tag failures separately", func() {
		checker.Resolve(context.Background(), types.InventoryItem{Name: "other", Image: "ghcr.io/org/other:2.0"})

		gomega.Expect(failures.count(metrics.StageToken)).To(gomega.BeZero())
		gomega.Expect(failures.count(metrics.StageDigest)).To(gomega.Equal(1))
		gomega.Expect(failures.count(metrics.StageTags)).To(gomega.Equal(1))
	})

	ginkgo.It("should skip registry lookups for an empty image reference", func() {
		status := checker.Resolve(context.Background(), types.InventoryItem{Name: "ghost"})

		gomega.Expect(status.CurrentTag).To(gomega.Equal(types.DefaultTag))
		gomega.Expect(status.RemoteDigest).To(gomega.BeEmpty())
		gomega.Expect(server.ReceivedRequests()).To(gomega.BeEmpty())
	})

	ginkgo.DescribeTable("images on a registry host without a known profile",
		func(image string) {
			status := checker.Resolve(context.Background(), types.InventoryItem{
				Name:        "foreign",
				Image:       image,
				LocalDigest: localDigest,
			})

			gomega.Expect(server.ReceivedRequests()).To(gomega.BeEmpty())
			gomega.Expect(status.RemoteDigest).To(gomega.BeEmpty())
			gomega.Expect(status.LatestVersionTag).To(gomega.BeEmpty())
			gomega.Expect(status.UpdateAvailable).To(gomega.BeFalse())
			gomega.Expect(status.LocalDigest).To(gomega.Equal(localDigest))
			gomega.Expect(failures.count(metrics.StageToken)).To(gomega.BeZero())
		},
		ginkgo.Entry("quay.io", "quay.io/org/app:1.0.0"),
		ginkgo.Entry("host with port", "registry.local:5000/org/app:1.0.0"),
		ginkgo.Entry("localhost", "localhost/org/app:1.0.0"),
	)

	ginkgo.It("should resolve an explicit docker.io host against the default profile", func() {
		status := checker.Resolve(context.Background(), types.InventoryItem{
			Name:        "hub",
			Image:       "docker.io/org/app:1.0.0",
			LocalDigest: localDigest,
		})

		gomega.Expect(status.RemoteDigest).To(gomega.Equal(remoteDigest))
		gomega.Expect(status.UpdateAvailable).To(gomega.BeTrue())
	})

	ginkgo.It("should preserve inventory order with bounded concurrency", func() {
		serial := check.New(registry.NewClient(), check.WithProfiles(profiles), check.WithConcurrency(1))
		items := []types.InventoryItem{
			{Name: "c", Image: "ghcr.io/org/app:1.0.0"},
			{Name: "a", Image: "ghcr.io/org/app:1.0.0"},
			{Name: "b", Image: "ghcr.io/org/app:1.0.0"},
		}

		report := serial.Check(context.Background(), items)

		names := make([]string, 0, len(report.Checked()))
		for _, status := range report.Checked() {
			names = append(names, status.Name)
		}

		gomega.Expect(names).To(gomega.Equal([]string{"c", "a", "b"}))
	})

	ginkgo.It("should degrade to unknown when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report := checker.Check(ctx, []types.InventoryItem{
			{Name: "app", Image: "ghcr.io/org/app:1.0.0", LocalDigest: localDigest},
		})

		gomega.Expect(report.Unknown()).To(gomega.HaveLen(1))
		gomega.Expect(report.UpdatesAvailable()).To(gomega.BeEmpty())
	})
})
