package version

// Build is the build identifier, injected with
// -ldflags "-X market-cutover/pkg/version.Build=<id>". Default "dev".
var Build = "dev"
