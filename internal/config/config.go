package config

type Config struct {
	ConfigVersion int             `yaml:"configVersion"`
	Server        ServerConfig    `yaml:"server"`
	Upstreams     []Upstream      `yaml:"upstreams"`
	Routes        []Route         `yaml:"routes"`
	Redirect      RedirectConfig  `yaml:"redirect"`
	Blacklist     map[string]bool `yaml:"blacklist"`
	Logging       LoggingConfig   `yaml:"logging"`
	Metrics       MetricsConfig   `yaml:"metrics"`

	baseDir string `yaml:"-"`
}

type ServerConfig struct {
	Listen              string    `yaml:"listen"`
	TrustForwardedProto bool      `yaml:"trustForwardedProto"`
	TLS                 TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"certFile"`
	KeyFile  string `yaml:"keyFile"`
}

type Upstream struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Route struct {
	Match    RouteMatch `yaml:"match"`
	Upstream string     `yaml:"upstream"`
}

type RouteMatch struct {
	Host       string `yaml:"host"`
	PathPrefix string `yaml:"pathPrefix"`
}

// RedirectConfig uses pointers so that a missing key is distinguishable from
// an explicit false or zero. Validate rejects missing keys.
type RedirectConfig struct {
	Enable        EnableConfig `yaml:"enable"`
	StatusCode    *int         `yaml:"statusCode"`
	LowerCaseMode string       `yaml:"lowerCaseMode"`
}

type EnableConfig struct {
	TrailingSlash *bool `yaml:"trailingSlash"`
	ToLowerCase   *bool `yaml:"toLowerCase"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	DecisionLog string `yaml:"decisionLog"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

func (c *Config) BaseDir() string {
	return c.baseDir
}

func (c *Config) ResolvePath(path string) string {
	return c.resolvePath(path)
}

func Bool(v bool) *bool {
	return &v
}

func Int(v int) *int {
	return &v
}
