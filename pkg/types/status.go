package types

// ContainerImageStatus is the per-container verdict of one check cycle.
//
// Empty digest or version fields mean "unknown": the registry could not be
// reached or did not answer, which is never the same as "no update".
type ContainerImageStatus struct {
	ContainerID      ContainerID
	Name             string
	Status           string
	State            string
	ImageReference   string
	CurrentTag       string
	LocalDigest      string
	RemoteDigest     string
	LatestVersionTag string
	UpdateAvailable  bool
}

// Report summarizes a check cycle.
type Report interface {
	Checked() []ContainerImageStatus          // Every container that was resolved.
	UpdatesAvailable() []ContainerImageStatus // Containers with a confirmed newer image.
	Unknown() []ContainerImageStatus          // Containers whose remote digest is unknown.
}
