package bootstrap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/abgdnv/storemanager/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/store?sslmode=disable", "pgx5://u:p@localhost:5432/store?sslmode=disable"},
		{"postgresql://localhost/store", "pgx5://localhost/store"},
		{"pgx5://localhost/store", "pgx5://localhost/store"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      config.LogConfig
		wantJSON bool
	}{
		{name: "json by default", cfg: config.LogConfig{Level: "warn"}, wantJSON: true},
		{name: "text", cfg: config.LogConfig{Level: "warn", Format: config.LogFormatText}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			l := newLogger(&buf, tc.cfg)

			// when
			l.Info("dropped")
			l.Warn("stock rejected", "product_id", 7)

			// then
			out := buf.String()
			assert.NotContains(t, out, "dropped")
			assert.Contains(t, out, "stock rejected")
			assert.Equal(t, tc.wantJSON, strings.HasPrefix(out, "{"))
		})
	}
}
