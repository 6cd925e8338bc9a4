package check_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	ggcrregistry "github.com/google/go-containerregistry/pkg/registry"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/dockupdate/dockupdate/pkg/check"
	"github.com/dockupdate/dockupdate/pkg/registry"
	"github.com/dockupdate/dockupdate/pkg/types"
)

var _ = ginkgo.Describe("Checker against an in-memory registry", func() {
	var (
		server  *httptest.Server
		host    string
		checker *check.Checker
	)

	push := func(tag string) v1.Image {
		img, err := random.Image(512, 1)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		ref, err := name.ParseReference(host+"/org/app:"+tag, name.Insecure)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(remote.Write(ref, img)).To(gomega.Succeed())

		return img
	}

	imageDigest := func(img v1.Image) string {
		d, err := img.Digest()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		return d.String()
	}

	ginkgo.BeforeEach(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"anonymous"}`))
		})
		mux.Handle("/v2/", ggcrregistry.New())

		server = httptest.NewServer(mux)
		host = strings.TrimPrefix(server.URL, "http://")

		profile := registry.Profile{
			Kind:          registry.KindGHCR,
			Prefix:        host + "/",
			CanonicalHost: host,
			AuthRealm:     server.URL + "/token",
			Service:       host,
			APIBase:       server.URL + "/v2",
		}
		checker = check.New(registry.NewClient(), check.WithProfiles(registry.Profiles{
			Known:   []registry.Profile{profile},
			Default: profile,
		}))
	})

	ginkgo.AfterEach(func() {
		server.Close()
	})

	ginkgo.It("should detect a retagged image and rank pushed versions", func() {
		running := push("1.2.0")
		push("1.9.0")
		push("1.10.0")
		published := push("1.2.0")

		status := checker.Resolve(context.Background(), types.InventoryItem{
			Name:        "app",
			Image:       host + "/org/app:1.2.0",
			LocalDigest: imageDigest(running),
		})

		gomega.Expect(status.RemoteDigest).To(gomega.Equal(imageDigest(published)))
		gomega.Expect(status.LatestVersionTag).To(gomega.Equal("1.10.0"))
		gomega.Expect(status.UpdateAvailable).To(gomega.BeTrue())
	})

	ginkgo.It("should report no update for the current manifest", func() {
		current := push("2.0")

		status := checker.Resolve(context.Background(), types.InventoryItem{
			Name:        "app",
			Image:       host + "/org/app:2.0",
			LocalDigest: imageDigest(current),
		})

		gomega.Expect(status.RemoteDigest).To(gomega.Equal(imageDigest(current)))
		gomega.Expect(status.UpdateAvailable).To(gomega.BeFalse())
	})

	ginkgo.It("should report unknown for a missing tag", func() {
		push("2.0")

		status := checker.Resolve(context.Background(), types.InventoryItem{
			Name:        "app",
			Image:       host + "/org/app:3.0",
			LocalDigest: "sha256:1111111111111111111111111111111111111111111111111111111111111111",
		})

		gomega.Expect(status.RemoteDigest).To(gomega.BeEmpty())
		gomega.Expect(status.LatestVersionTag).To(gomega.Equal("2.0"))
		gomega.Expect(status.UpdateAvailable).To(gomega.BeFalse())
	})
})
