package cli

// version is package-level so GetVersion/SetVersionInfo can be used from
// both the root command's --version flag and the MCP server's
// Implementation.Version field.
var version = "dev"

// SetVersionInfo sets the CLI's reported version, called once from main
// with a build-time-injected value.
func SetVersionInfo(v string) {
	version = v
}

// GetVersion returns the current version string.
func GetVersion() string {
	return version
}
