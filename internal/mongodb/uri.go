package mongodb

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/mesh-intelligence/binder/pkg/types"
)

// Driver defaults, matching the documented client defaults.
const (
	defaultHost       = "localhost"
	defaultPort       = 27017
	defaultAuthSource = "admin"
)

// BuildURI derives the connection string for cfg.
//
// Resolution rules:
//   - empty host: the driver's default address (localhost on the default
//     port), so an empty configuration is a legal way to reach a local
//     deployment.
//   - a filesystem socket path (ends in ".sock"): the socket is addressed
//     directly and host/port resolution is bypassed.
//   - otherwise: an explicit host[:port] pair, with a "mongodb://" scheme
//     prefix in Host tolerated and the port defaulting to 27017.
//
// cfg.Params entries are appended verbatim as connection-string options,
// in sorted key order so the result is deterministic.
func BuildURI(cfg types.ConnectionConfig) string {
	host := strings.TrimPrefix(cfg.Host, "mongodb://")

	var addr string
	switch {
	case strings.HasSuffix(host, ".sock"):
		addr = url.QueryEscape(host)
	case host == "":
		addr = fmt.Sprintf("%s:%d", defaultHost, defaultPort)
	case strings.Contains(host, ":"):
		addr = host
	default:
		port := cfg.Port
		if port == 0 {
			port = defaultPort
		}
		addr = fmt.Sprintf("%s:%d", host, port)
	}

	uri := "mongodb://" + addr
	if len(cfg.Params) > 0 {
		keys := make([]string, 0, len(cfg.Params))
		for k := range cfg.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := url.Values{}
		for _, k := range keys {
			values.Set(k, fmt.Sprint(cfg.Params[k]))
		}
		uri += "/?" + values.Encode()
	}
	return uri
}
