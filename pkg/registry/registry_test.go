package registry_test

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/dockupdate/dockupdate/pkg/registry"
)

var _ = ginkgo.Describe("Registry classification", func() {
	ginkgo.DescribeTable("Classify",
		func(raw string, expected registry.Kind) {
			gomega.Expect(registry.Classify(raw).Kind).To(gomega.Equal(expected))
		},
		ginkgo.Entry("ghcr prefix", "ghcr.io/org/app:1.2.3", registry.KindGHCR),
		ginkgo.Entry("lscr prefix", "lscr.io/linuxserver/sonarr:latest", registry.KindLSCR),
		ginkgo.Entry("official image", "redis", registry.KindDockerHub),
		ginkgo.Entry("namespaced hub image", "grafana/grafana:10.0.0", registry.KindDockerHub),
		ginkgo.Entry("explicit docker.io", "docker.io/library/nginx", registry.KindDockerHub),
		ginkgo.Entry("ghcr.io without trailing slash", "ghcr.io", registry.KindDockerHub),
		ginkgo.Entry("host containing ghcr.io later", "mirror.example.com/ghcr.io/app", registry.KindDockerHub),
	)

	ginkgo.It("should honour a custom table in order", func() {
		first := registry.Profile{Kind: registry.KindGHCR, Prefix: "example.com/"}
		second := registry.Profile{Kind: registry.KindLSCR, Prefix: "example.com/"}
		table := registry.Profiles{Known: []registry.Profile{first, second}, Default: registry.DockerHub}

		gomega.Expect(table.Classify("example.com/app").Kind).To(gomega.Equal(registry.KindGHCR))
	})

	ginkgo.It("should only match known prefixes", func() {
		table := registry.DefaultProfiles()

		profile, ok := table.Match("ghcr.io/org/app")
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(profile.Kind).To(gomega.Equal(registry.KindGHCR))

		_, ok = table.Match("quay.io/prometheus/prometheus:v2.50.0")
		gomega.Expect(ok).To(gomega.BeFalse())
		gomega.Expect(table.Classify("quay.io/prometheus/prometheus:v2.50.0").Kind).To(gomega.Equal(registry.KindDockerHub))
	})

	ginkgo.Describe("APIPath", func() {
		ginkgo.It("should expand single-segment Docker Hub paths", func() {
			gomega.Expect(registry.DockerHub.APIPath("redis")).To(gomega.Equal("library/redis"))
		})

		ginkgo.It("should be idempotent", func() {
			once := registry.DockerHub.APIPath("redis")
			gomega.Expect(registry.DockerHub.APIPath(once)).To(gomega.Equal(once))
		})

		ginkgo.It("should leave other registries untouched", func() {
			gomega.Expect(registry.GHCR.APIPath("app")).To(gomega.Equal("app"))
			gomega.Expect(registry.GHCR.APIPath("org/app")).To(gomega.Equal("org/app"))
		})
	})

	ginkgo.Describe("AuthURL", func() {
		ginkgo.It("should build the Docker Hub pull-scope URL", func() {
			gomega.Expect(registry.DockerHub.AuthURL("library/redis")).To(gomega.Equal(
				"https://auth.docker.io/token?service=registry.docker.io&scope=repository:library/redis:pull",
			))
		})

		ginkgo.It("should send lscr images to the ghcr token service", func() {
			gomega.Expect(registry.LSCR.AuthURL("linuxserver/sonarr")).To(gomega.Equal(
				"https://ghcr.io/token?service=ghcr.io&scope=repository:linuxserver/sonarr:pull",
			))
		})
	})

	ginkgo.Describe("Client", func() {
		ginkgo.It("should fall back to the default timeout", func() {
			gomega.Expect((&registry.Client{}).RequestTimeout()).To(gomega.Equal(registry.DefaultTimeout))

			var nilClient *registry.Client
			gomega.Expect(nilClient.RequestTimeout()).To(gomega.Equal(registry.DefaultTimeout))
		})
	})
})
