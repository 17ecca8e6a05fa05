package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// Source DSN schemes.
const (
	SchemeDBAL       = "dbal"
	SchemeJSONL      = "jsonl"
	SchemeJackrabbit = "jackrabbit"
)

// liveSuffix is appended to the default workspace to name the live one.
const liveSuffix = "_live"

// DSN is a parsed source DSN such as "dbal://source?workspace=default".
type DSN struct {
	Scheme string

	// Connection is the configured connection holding the Jackalope DBAL
	// tables. Set for dbal.
	Connection string

	// Dir is the directory of the JSONL exports. Set for jsonl.
	Dir string

	Workspace     string
	LiveWorkspace string
}

// Workspaces returns the default and live workspace, in migration order.
func (d *DSN) Workspaces() []string {
	return []string{d.Workspace, d.LiveWorkspace}
}

// IsLiveWorkspace reports whether a workspace holds published content.
func IsLiveWorkspace(name string) bool {
	return strings.HasSuffix(name, liveSuffix)
}

// ParseDSN parses a source DSN. The workspace query parameter is required;
// the live workspace is derived from it.
func ParseDSN(raw string) (*DSN, error) {
	if raw == "" {
		return nil, types.ErrDSNEmpty
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	workspace := u.Query().Get("workspace")
	if workspace == "" {
		return nil, types.ErrWorkspaceMissing
	}

	d := &DSN{
		Scheme:        u.Scheme,
		Workspace:     workspace,
		LiveWorkspace: workspace + liveSuffix,
	}
	switch u.Scheme {
	case SchemeDBAL:
		d.Connection = u.Host
	case SchemeJSONL:
		d.Dir = u.Opaque
		if d.Dir == "" {
			d.Dir = u.Host + u.Path
		}
	case SchemeJackrabbit:
		// Recognized so that source.Open can name it as unsupported.
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedSource, u.Scheme)
	}
	return d, nil
}
