package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	ServerAddr        string // listen addr for the HTTP server
	LogLevel          string // sets the log level (zap log level values)
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules applied to the root logger
	TrackFile         string // path to a YAML track definition (empty: built-in layout)
	WatchTrackFile    bool   // reload the track file on change
	NumCars           int    // number of cars on the grid
	TotalLaps         int    // race distance in laps
	BroadcastInterval string // cadence of state broadcasts
	LidarEnabled      bool   // attach lidar scans to car samples
	InsightURL        string // base URL of the driver insight service
	InsightTimeout    string // request timeout for insight fetches
	InsightCacheTTL   string // per-driver cache expiration for insight reports
	NatsURL           string // if set, state frames are mirrored to this NATS server
	TraefikCerts      string // path to a traefik acme.json holding the TLS certificates
	CertDomain        string // domain to pick from the traefik certificate store
	WaitForServices   string // duration to wait for other services to be ready
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry
	ProfilingPort     int    // port for providing profiling data
)
