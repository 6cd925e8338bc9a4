package actions_test

import (
	"context"
	"errors"
	"net/http"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/ghttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/internal/actions"
	"github.com/dockupdate/dockupdate/internal/actions/mocks"
	"github.com/dockupdate/dockupdate/pkg/check"
	"github.com/dockupdate/dockupdate/pkg/container"
	"github.com/dockupdate/dockupdate/pkg/filters"
	"github.com/dockupdate/dockupdate/pkg/registry"
	"github.com/dockupdate/dockupdate/pkg/registry/digest"
	"github.com/dockupdate/dockupdate/pkg/types"
)

const (
	localDigest  = "sha256:1111111111111111111111111111111111111111111111111111111111111111"
	remoteDigest = "sha256:2222222222222222222222222222222222222222222222222222222222222222"
)

// checksTotal reads dockupdate_checks_total from the default registry.
func checksTotal() float64 {
	families, err := prometheus.DefaultGatherer.Gather()
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	for _, family := range families {
		if family.GetName() == "dockupdate_checks_total" {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}

	return 0
}

var _ = ginkgo.Describe("RunCheck", func() {
	var (
		server  *ghttp.Server
		checker *check.Checker
		client  *mocks.MockClient
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
		checker = check.New(registry.NewClient(),
			check.WithProfiles(registry.Profiles{Known: []registry.Profile{fake}, Default: fake}),
		)

		server.RouteToHandler(http.MethodGet, "/token",
			ghttp.RespondWith(http.StatusOK, `{"token":"anonymous"}`),
		)
		server.RouteToHandler(http.MethodHead, "/v2/org/app/manifests/1.0.0",
			ghttp.RespondWith(http.StatusOK, nil, http.Header{digest.ContentDigestHeader: []string{remoteDigest}}),
		)
		server.RouteToHandler(http.MethodHead, "/v2/org/db/manifests/2.0.0",
			ghttp.RespondWith(http.StatusOK, nil, http.Header{digest.ContentDigestHeader: []string{localDigest}}),
		)
		server.RouteToHandler(http.MethodGet, "/v2/org/app/tags/list",
			ghttp.RespondWith(http.StatusOK, `{"name":"org/app","tags":["1.0.0","1.1.0"]}`),
		)

		client = mocks.NewMockClient(
			types.InventoryItem{ID: "app-id", Name: "app", State: "running", Image: "ghcr.io/org/app:1.0.0", LocalDigest: localDigest},
			types.InventoryItem{ID: "db-id", Name: "db", State: "running", Image: "ghcr.io/org/db:2.0.0", LocalDigest: localDigest},
		)
	})

	ginkgo.AfterEach(func() {
		server.Close()
	})

	ginkgo.It("should resolve every listed container in order", func() {
		report, err := actions.RunCheck(context.Background(), client, checker, filters.NoFilter)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		checked := report.Checked()
		gomega.Expect(checked).To(gomega.HaveLen(2))
		gomega.Expect(checked[0].Name).To(gomega.Equal("app"))
		gomega.Expect(checked[0].UpdateAvailable).To(gomega.BeTrue())
		gomega.Expect(checked[0].LatestVersionTag).To(gomega.Equal("1.1.0"))
		gomega.Expect(checked[1].Name).To(gomega.Equal("db"))
		gomega.Expect(checked[1].UpdateAvailable).To(gomega.BeFalse())
		gomega.Expect(report.UpdatesAvailable()).To(gomega.HaveLen(1))
	})

	ginkgo.It("should apply the filter before resolving", func() {
		report, err := actions.RunCheck(context.Background(), client, checker,
			filters.FilterByNames([]string{"db"}, filters.NoFilter))
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(report.Checked()).To(gomega.HaveLen(1))
		gomega.Expect(report.Checked()[0].Name).To(gomega.Equal("db"))
	})

	ginkgo.It("should record the cycle in the metrics", func() {
		before := checksTotal()

		_, err := actions.RunCheck(context.Background(), client, checker, filters.NoFilter)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Eventually(checksTotal).Should(gomega.BeNumerically(">", before))
	})

	ginkgo.It("should return an error when the inventory is unavailable", func() {
		client.Err = container.ErrInventoryUnavailable

		report, err := actions.RunCheck(context.Background(), client, checker, filters.NoFilter)

		gomega.Expect(report).To(gomega.BeNil())
		gomega.Expect(err).To(gomega.MatchError(container.ErrInventoryUnavailable))
	})

	ginkgo.Describe("with notifications", func() {
		ginkgo.It("should send the report after a successful cycle", func() {
			notifier := &mocks.MockNotifier{}

			report := actions.RunCheckWithNotifications(context.Background(), client, checker, filters.NoFilter, notifier)

			gomega.Expect(report).NotTo(gomega.BeNil())
			gomega.Expect(notifier.Started).To(gomega.Equal(1))
			gomega.Expect(notifier.Sent()).To(gomega.HaveLen(1))
			gomega.Expect(notifier.Sent()[0].UpdatesAvailable()).To(gomega.HaveLen(1))
		})

		ginkgo.It("should send the batched log without a report when the inventory fails", func() {
			notifier := &mocks.MockNotifier{}
			client.Err = errors.New("daemon down")

			report := actions.RunCheckWithNotifications(context.Background(), client, checker, filters.NoFilter, notifier)

			gomega.Expect(report).To(gomega.BeNil())
			gomega.Expect(notifier.Sent()).To(gomega.HaveLen(1))
			gomega.Expect(notifier.Sent()[0]).To(gomega.BeNil())
		})

		ginkgo.It("should work without a notifier", func() {
			report := actions.RunCheckWithNotifications(context.Background(), client, checker, filters.NoFilter, nil)

			gomega.Expect(report).NotTo(gomega.BeNil())
		})
	})

	ginkgo.Describe("LogReport", func() {
		ginkgo.It("should log every container with an update", func() {
			buffer := gbytes.NewBuffer()
			logrus.SetOutput(buffer)
			defer logrus.SetOutput(ginkgo.GinkgoWriter)

			actions.LogReport(check.NewReport([]types.ContainerImageStatus{
				{Name: "app", ImageReference: "ghcr.io/org/app:1.0.0", LocalDigest: localDigest, RemoteDigest: remoteDigest, UpdateAvailable: true},
				{Name: "db", ImageReference: "ghcr.io/org/db:2.0.0", LocalDigest: localDigest, RemoteDigest: localDigest},
			}))

			gomega.Expect(buffer).To(gbytes.Say(`Update available.*container=app.*current=111111111111.*latest=222222222222`))
			gomega.Expect(buffer).To(gbytes.Say(`Session done.*checked=2.*updates_available=1`))
		})
	})
})
