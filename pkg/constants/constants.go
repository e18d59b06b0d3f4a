package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "GALAXY"

	AppName = "Galaxy Australia"
	// ServiceName labels logs, traces and NATS connections.
	ServiceName = "galaxy_web"

	// PostalMailHost is the Galaxy Australia mail server. Mail configured
	// against this host is submitted through the Postal HTTP API.
	PostalMailHost = "mail.usegalaxy.org.au"
)
