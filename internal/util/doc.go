// Package util provides small formatting helpers shared by dockupdate's packages.
//
// Key components:
//   - FormatDuration: Renders durations as "1 hour, 2 minutes, 3 seconds" for startup logs.
//   - NormalizeContainerName: Trims the leading "/" the Docker API puts on container names.
package util
