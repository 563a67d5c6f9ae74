package mongodb

import (
	"testing"

	"github.com/mesh-intelligence/binder/pkg/types"
)

func TestBuildURI(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.ConnectionConfig
		want string
	}{
		{
			name: "empty configuration uses the local default",
			cfg:  types.ConnectionConfig{},
			want: "mongodb://localhost:27017",
		},
		{
			name: "host with default port",
			cfg:  types.ConnectionConfig{Host: "db.internal"},
			want: "mongodb://db.internal:27017",
		},
		{
			name: "host with explicit port",
			cfg:  types.ConnectionConfig{Host: "db.internal", Port: 27018},
			want: "mongodb://db.internal:27018",
		},
		{
			name: "host already carrying a port wins over Port",
			cfg:  types.ConnectionConfig{Host: "db.internal:5000", Port: 27018},
			want: "mongodb://db.internal:5000",
		},
		{
			name: "scheme prefix in host is tolerated",
			cfg:  types.ConnectionConfig{Host: "mongodb://db.internal", Port: 27018},
			want: "mongodb://db.internal:27018",
		},
		{
			name: "unix socket path is escaped and used directly",
			cfg:  types.ConnectionConfig{Host: "/var/run/mongodb.sock", Port: 27018},
			want: "mongodb://" + "%2Fvar%2Frun%2Fmongodb.sock",
		},
		{
			name: "params appended in sorted key order",
			cfg: types.ConnectionConfig{
				Host: "db.internal",
				Params: map[string]any{
					"replicaSet":  "rs0",
					"ssl":         true,
					"maxPoolSize": 10,
				},
			},
			want: "mongodb://db.internal:27017/?maxPoolSize=10&replicaSet=rs0&ssl=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildURI(tt.cfg); got != tt.want {
				t.Errorf("BuildURI() = %q, want %q", got, tt.want)
			}
		})
	}
}
