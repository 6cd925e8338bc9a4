package notifications

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("JSON template", func() {
	ginkgo.When("using report templates", func() {
		ginkgo.When("JSON template is used", func() {
			ginkgo.It("should format the messages to the expected format", func() {
				updated := `{
					"id": "c79110000000",
					"name": "updt1",
					"imageName": "mock/updt1:1.0.0",
					"currentTag": "1.0.0",
					"localDigest": "` + mockLocalDigest + `",
					"remoteDigest": "` + mockRemoteDigest + `",
					"latestVersion": "1.2.0",
					"updateAvailable": true,
					"state": "running"
				}`
				fresh := `{
					"id": "c79120000000",
					"name": "frsh1",
					"imageName": "mock/frsh1:latest",
					"currentTag": "latest",
					"localDigest": "` + mockLocalDigest + `",
					"remoteDigest": "` + mockLocalDigest + `",
					"latestVersion": "",
					"updateAvailable": false,
					"state": "running"
				}`
				unknown := `{
					"id": "c79130000000",
					"name": "unkn1",
					"imageName": "private.example/unkn1:latest",
					"currentTag": "latest",
					"localDigest": "` + mockLocalDigest + `",
					"remoteDigest": "",
					"latestVersion": "",
					"updateAvailable": false,
					"state": "exited"
				}`
				expected := `{
					"entries": [
						{
							"data": null,
							"level": "info",
							"message": "foo Bar",
							"time": "0001-01-01T00:00:00Z"
						}
					],
					"host": "Mock",
					"title": "Image updates on Mock",
					"report": {
						"checked": [` + updated + `,` + fresh + `,` + unknown + `],
						"updatesAvailable": [` + updated + `],
						"unknown": [` + unknown + `]
					}
				}`

				gomega.Expect(getTemplatedResult(`json.v1`, mockData(mockReport()))).
					To(gomega.MatchJSON(expected))
			})

			ginkgo.It("should render a null report for log-only messages", func() {
				expected := `{
					"entries": [
						{
							"data": null,
							"level": "info",
							"message": "foo Bar",
							"time": "0001-01-01T00:00:00Z"
						}
					],
					"host": "Mock",
					"title": "Image updates on Mock",
					"report": null
				}`

				gomega.Expect(getTemplatedResult(`json.v1`, mockData(nil))).
					To(gomega.MatchJSON(expected))
			})
		})
	})
})
