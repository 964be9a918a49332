package version

// Version is the current application version, overridable at build time:
//
//	go build -ldflags "-X github.com/vanderheijden86/wellradar/pkg/version.Version=v1.2.3"
var Version = "v0.3.0"
