package notifications_test

import (
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/dockupdate/dockupdate/internal/flags"
	"github.com/dockupdate/dockupdate/pkg/notifications"
)

// newCommand returns a command with the notification flags registered and args parsed.
func newCommand(args ...string) *cobra.Command {
	command := &cobra.Command{}
	flags.SetDefaults()
	flags.RegisterNotificationFlags(command)

	gomega.ExpectWithOffset(1, command.ParseFlags(args)).To(gomega.Succeed())

	return command
}

var _ = ginkgo.Describe("notifications", func() {
	ginkgo.Describe("the notifier", func() {
		ginkgo.When("no notification URLs are provided", func() {
			ginkgo.It("should have no service names", func() {
				notifier, err := notifications.NewNotifier(newCommand())
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				defer notifier.Close()

				gomega.Expect(notifier.GetNames()).To(gomega.BeEmpty())
			})
		})

		ginkgo.When("notification URLs are provided", func() {
			ginkgo.It("should name the services by scheme", func() {
				notifier, err := notifications.NewNotifier(newCommand(
					"--notification-url", "logger://",
				))
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				defer notifier.Close()

				gomega.Expect(notifier.GetNames()).To(gomega.Equal([]string{"logger"}))
				gomega.Expect(notifier.GetURLs()).To(gomega.Equal([]string{"logger://"}))
			})
		})

		ginkgo.When("a notification URL is invalid", func() {
			ginkgo.It("should return an error", func() {
				_, err := notifications.NewNotifier(newCommand(
					"--notification-url", "nosuchservice://foo",
				))
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})

		ginkgo.When("the notification level is invalid", func() {
			ginkgo.It("should return an error", func() {
				_, err := notifications.NewNotifier(newCommand(
					"--notifications-level", "loud",
				))
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})

		ginkgo.When("title is overridden in flag", func() {
			ginkgo.It("should use the specified hostname in the title", func() {
				data := notifications.GetTemplateData(newCommand(
					"--notifications-hostname", "test.host",
				))

				gomega.Expect(data.Host).To(gomega.Equal("test.host"))
				gomega.Expect(data.Title).To(gomega.Equal("Image updates on test.host"))
			})
		})

		ginkgo.When("no hostname can be resolved", func() {
			ginkgo.It("should use the default simple title", func() {
				gomega.Expect(notifications.GetTitle("", "")).To(gomega.Equal("Image updates"))
			})
		})

		ginkgo.When("title tag is set", func() {
			ginkgo.It("should use the prefix in the title", func() {
				data := notifications.GetTemplateData(newCommand(
					"--notification-title-tag", "PREFIX",
					"--notifications-hostname", "test.host",
				))

				gomega.Expect(data.Title).To(gomega.Equal("[PREFIX] Image updates on test.host"))
			})
		})

		ginkgo.When("the skip title flag is set", func() {
			ginkgo.It("should return an empty title", func() {
				data := notifications.GetTemplateData(newCommand(
					"--notification-skip-title",
				))

				gomega.Expect(data.Title).To(gomega.BeEmpty())
			})
		})

		ginkgo.When("no delay is defined", func() {
			ginkgo.It("should use no delay", func() {
				gomega.Expect(notifications.GetDelay(newCommand())).To(gomega.Equal(time.Duration(0)))
			})
		})

		ginkgo.When("delay is defined", func() {
			ginkgo.It("should use the specified delay", func() {
				delay := notifications.GetDelay(newCommand("--notifications-delay", "5"))

				gomega.Expect(delay).To(gomega.Equal(5 * time.Second))
			})
		})
	})
})
