package transfer

import (
	"fmt"
	"strings"
)

// Endpoint addresses a directory on a remote host in rsync/scp notation,
// "[user@]host:path".
type Endpoint struct {
	User string
	Host string
	Path string
}

// ParseEndpoint parses "[user@]host:path" into an Endpoint
func ParseEndpoint(s string) (Endpoint, error) {
	hostPart, path, ok := strings.Cut(s, ":")
	if !ok || hostPart == "" || path == "" {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: must be of the form [user@]host:path", s)
	}

	var ep Endpoint
	ep.Path = path

	if user, host, ok := strings.Cut(hostPart, "@"); ok {
		if user == "" || host == "" {
			return Endpoint{}, fmt.Errorf("invalid endpoint %q: empty user or host", s)
		}
		ep.User = user
		ep.Host = host
	} else {
		ep.Host = hostPart
	}

	return ep, nil
}

// String renders the endpoint back to "[user@]host:path"
func (e Endpoint) String() string {
	if e.User != "" {
		return e.User + "@" + e.Host + ":" + e.Path
	}
	return e.Host + ":" + e.Path
}

// HostSpec returns the ssh destination, "[user@]host"
func (e Endpoint) HostSpec() string {
	if e.User != "" {
		return e.User + "@" + e.Host
	}
	return e.Host
}

// Join returns the endpoint address of a file under the remote path
func (e Endpoint) Join(name string) string {
	joined := e
	joined.Path = strings.TrimRight(e.Path, "/") + "/" + name
	return joined.String()
}
