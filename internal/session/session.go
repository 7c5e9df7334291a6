package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/webitel/screens-rating/internal/domain/model"
)

var ErrInvalidServer = errors.New("invalid portal server")

// Authentication decorates outgoing portal requests with credentials.
type Authentication interface {
	Authenticate(req *http.Request)
}

type BasicAuthentication struct {
	Username string
	Password string
}

func (a BasicAuthentication) Authenticate(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}

type BearerAuthentication struct {
	Token string
}

func (a BearerAuthentication) Authenticate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// Session is an authenticated handle on the portal.
// Target is the identity every result produced through this session is tagged with.
type Session struct {
	Server *url.URL
	Auth   Authentication
	Target model.OperationIdentity
}

func New(server string, auth Authentication) (*Session, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidServer, server)
	}
	return &Session{Server: u, Auth: auth}, nil
}

// WithTarget returns a copy of the session bound to the given callback target.
func (s *Session) WithTarget(target model.OperationIdentity) *Session {
	cp := *s
	u := *s.Server
	cp.Server = &u
	cp.Target = target
	return &cp
}

// Endpoint resolves a path against the portal base URL.
func (s *Session) Endpoint(path string) string {
	return s.Server.JoinPath(path).String()
}

func (s *Session) Authenticate(req *http.Request) {
	if s.Auth != nil {
		s.Auth.Authenticate(req)
	}
}
