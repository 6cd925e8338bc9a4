package notifications

var commonTemplates = map[string]string{
	`default`: `
{{- if .Report -}}
  {{- with .Report -}}
    {{- if .UpdatesAvailable -}}
      {{len .UpdatesAvailable}} of {{len .Checked}} containers have updates available
      {{- range .UpdatesAvailable}}
- {{.Name}} ({{.ImageReference}}): {{ShortDigest .LocalDigest}} -> {{ShortDigest .RemoteDigest}}
        {{- with .LatestVersionTag}}, latest version {{.}}{{end}}
      {{- end -}}
    {{- end -}}
  {{- end -}}
{{- else -}}
  {{range .Entries -}}{{.Message}}{{"\n"}}{{- end -}}
{{- end -}}`,

	`porcelain.v1.summary`: `
{{- if .Report -}}
  {{- range .Report.Checked }}
    {{- .Name}} ({{.ImageReference}}): {{if .UpdateAvailable}}Update available{{else if .RemoteDigest}}Up to date{{else}}Unknown{{end -}}
    {{- with .LatestVersionTag}} Latest: {{.}}{{end}}{{ println }}
  {{- else -}}
    no containers matched filter
  {{- end -}}
{{- end -}}`,

	`json.v1`: `{{ . | ToJSON }}`,
}
