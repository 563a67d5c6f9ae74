package types

import "context"

// ConnectionConfig holds the resolved connection parameters for one
// configured store. Fields left at their zero value fall back to the
// backend driver's own documented defaults. Params is the escape hatch for
// raw driver parameters that have no named field; it is merged verbatim
// into the driver's connection arguments.
type ConnectionConfig struct {
	// Name is the target database name. Defaults to the configuration
	// alias when empty.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Host is the server address. May carry a scheme prefix
	// ("mongodb://host"), a bare hostname, or a filesystem socket path;
	// socket paths bypass Host/Port resolution entirely.
	Host string `json:"host" yaml:"host" mapstructure:"host"`

	// Port is the server port. Defaults to the driver's default port.
	Port int `json:"port" yaml:"port" mapstructure:"port"`

	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`

	// AuthSource is the database to authenticate against. Defaults to
	// "admin" when credentials are given.
	AuthSource string `json:"auth_source" yaml:"auth_source" mapstructure:"auth_source"`

	// AuthMechanism selects the authentication mechanism. When empty the
	// driver negotiates one with the server.
	AuthMechanism string `json:"auth_mechanism" yaml:"auth_mechanism" mapstructure:"auth_mechanism"`

	// Params holds additional driver parameters, merged verbatim.
	Params map[string]any `json:"params" yaml:"params" mapstructure:"params"`
}

// Settings maps a connection alias to its configuration. An empty
// ConnectionConfig is legal and connects to the driver's default address.
type Settings map[string]ConnectionConfig

// Opener creates a live Store from a connection configuration. Backends
// provide an Opener; the registry calls it once per alias during Init.
type Opener func(ctx context.Context, cfg ConnectionConfig) (Store, error)
