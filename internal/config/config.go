// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - External errors must be wrapped via this package's error kinds.
package config

// Ads platform limits for the membership life span of a user list.
const (
	MaxMembershipLifeSpanDays   = 540
	UnlimitedMembershipLifeSpan = 10000
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WriteTimeoutSeconds bounds a whole request, including every remote call.
	WriteTimeoutSeconds int `koanf:"write_timeout_s"`

	// ScratchDir receives the downloaded CSV for the duration of a request.
	ScratchDir string `koanf:"scratch_dir"`

	// StorageCredentialsFile is an optional service account key for Cloud
	// Storage. Application default credentials are used when empty.
	StorageCredentialsFile string `koanf:"storage_credentials_file"`

	// AdsConfigPath points at the google-ads.yaml credentials file.
	AdsConfigPath string `koanf:"ads_config_path"`

	// AdsAPIVersion is the REST version segment, e.g. "v17".
	AdsAPIVersion string `koanf:"ads_api_version"`

	// AdsEndpoint is the REST base URL of the ads platform.
	AdsEndpoint string `koanf:"ads_endpoint"`

	// UserListName names lists created when no user_list_id is supplied.
	UserListName string `koanf:"user_list_name"`

	// MembershipLifeSpanDays is the retention window of created lists.
	MembershipLifeSpanDays int `koanf:"membership_life_span_days"`

	// RunJob is the default for requests that do not set run_job.
	RunJob bool `koanf:"run_job"`

	// AbortOnEmpty stops a request before any remote call when the input
	// file produced no identity records.
	AbortOnEmpty bool `koanf:"abort_on_empty"`

	// Columns maps identity fields to CSV headers.
	Columns Columns `koanf:"columns"`
}

// Columns holds the CSV header of each identity field.
type Columns struct {
	Email     string `koanf:"email"`
	Phone     string `koanf:"phone"`
	FirstName string `koanf:"first_name"`
	LastName  string `koanf:"last_name"`
	Country   string `koanf:"country"`
	Zip       string `koanf:"zip"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":8080",
		WriteTimeoutSeconds:    540,
		ScratchDir:             "/tmp",
		AdsConfigPath:          "google-ads.yaml",
		AdsAPIVersion:          "v17",
		AdsEndpoint:            "https://googleads.googleapis.com",
		UserListName:           "Customer Match list",
		MembershipLifeSpanDays: 30,
		RunJob:                 true,
		AbortOnEmpty:           false,
		Columns: Columns{
			Email:     "Email",
			Phone:     "Phone",
			FirstName: "First name",
			LastName:  "Last name",
			Country:   "Country",
			Zip:       "Zip",
		},
	}
}
