package rest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aaronboult/sserver"
	"github.com/aaronboult/sserver/util"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/mongodb/grip/recovery"
	"github.com/pkg/errors"
	"github.com/rs/cors"
)

// Service is the HTTP front end. It serves the published route table
// on a TCP port and a UNIX domain socket at the same time.
type Service struct {
	Port        int
	SocketPath  string
	SocketMode  os.FileMode
	Prefix      string
	RunAsUser   string
	RunAsGroup  string
	DisableCORS bool
	Environment sserver.Environment

	// internal settings
	app       *gimlet.APIApp
	handler   http.Handler
	listeners []net.Listener
}

func (s *Service) Validate() error {
	if s.Environment == nil {
		return errors.New("must specify an environment")
	}

	if s.Port == 0 {
		s.Port = sserver.DefaultPort
	}
	if s.SocketPath == "" {
		s.SocketPath = sserver.DefaultSocketPath
	}
	if s.SocketMode == 0 {
		s.SocketMode = sserver.DefaultSocketMode
	}
	if s.RunAsUser == "" {
		s.RunAsUser = sserver.DefaultRunAsUser
	}
	if s.RunAsGroup == "" {
		s.RunAsGroup = sserver.DefaultRunAsGroup
	}

	if s.app == nil {
		s.app = gimlet.NewApp()
		s.app.NoVersions = true
	}

	if s.Prefix != "" {
		s.app.SetPrefix(s.Prefix)
	}

	return nil
}

// Start resolves the application and binds both listeners. When the
// process is running as root it drops to the configured user and group
// once the sockets are bound.
func (s *Service) Start(ctx context.Context) error {
	if err := s.resolveHandler(); err != nil {
		return errors.WithStack(err)
	}

	tcp, err := net.Listen("tcp", fmt.Sprintf(":%d", s.Port))
	if err != nil {
		return errors.Wrapf(err, "problem binding port %d", s.Port)
	}
	s.listeners = append(s.listeners, tcp)

	socket, err := s.bindSocket()
	if err != nil {
		tcp.Close()
		s.listeners = nil
		return errors.WithStack(err)
	}
	s.listeners = append(s.listeners, socket)

	if err := util.DropPrivileges(s.RunAsUser, s.RunAsGroup); err != nil {
		s.closeListeners()
		return errors.Wrap(err, "problem dropping privileges")
	}

	grip.Info(message.Fields{
		"message": "service listening",
		"port":    s.Port,
		"socket":  s.SocketPath,
		"mode":    fmt.Sprintf("%04o", s.SocketMode),
	})

	return nil
}

// resolveHandler builds the HTTP handler and loads the static file
// map.
func (s *Service) resolveHandler() error {
	if s.app == nil {
		return errors.New("application is not valid")
	}

	s.addRoutes()
	s.app.AddMiddleware(gimlet.MakeRecoveryLogger())

	if err := s.app.Resolve(); err != nil {
		return errors.Wrap(err, "problem resolving routes")
	}

	handler, err := s.app.Handler()
	if err != nil {
		return errors.Wrap(err, "problem getting handler")
	}
	if !s.DisableCORS {
		handler = cors.Default().Handler(handler)
	}
	s.handler = handler

	return errors.Wrap(s.loadStatic(), "problem loading static files")
}

// bindSocket creates the UNIX socket listener, replacing any stale
// socket file, and applies the configured mode before any connection
// is accepted.
func (s *Service) bindSocket() (net.Listener, error) {
	if util.FileExists(s.SocketPath) {
		if err := os.Remove(s.SocketPath); err != nil {
			return nil, errors.Wrapf(err, "problem removing stale socket '%s'", s.SocketPath)
		}
	}

	socket, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return nil, errors.Wrapf(err, "problem binding socket '%s'", s.SocketPath)
	}

	if err := os.Chmod(s.SocketPath, s.SocketMode); err != nil {
		socket.Close()
		return nil, errors.Wrapf(err, "problem setting mode on socket '%s'", s.SocketPath)
	}

	return socket, nil
}

// Run serves on the bound listeners until the context is canceled,
// then shuts down gracefully and removes the socket file.
func (s *Service) Run(ctx context.Context) error {
	if s.handler == nil || len(s.listeners) == 0 {
		return errors.New("service is not started")
	}

	srv := &http.Server{Handler: s.handler}
	serveErrs := make(chan error, len(s.listeners))

	for _, l := range s.listeners {
		go func(l net.Listener) {
			defer recovery.LogStackTraceAndContinue("http serving", l.Addr().String())

			if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
				serveErrs <- errors.Wrapf(err, "problem serving on '%s'", l.Addr())
			}
		}(l)
	}

	select {
	case err := <-serveErrs:
		s.cleanup()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.cleanup()

	grip.Info("service shut down")

	return errors.Wrap(err, "problem shutting down service")
}

// Handler exposes the resolved HTTP handler for testing.
func (s *Service) Handler() (http.Handler, error) {
	if s.handler == nil {
		return nil, errors.New("service is not started")
	}

	return s.handler, nil
}

func (s *Service) closeListeners() {
	for _, l := range s.listeners {
		if err := l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			grip.Warning(message.WrapError(err, message.Fields{
				"message": "problem closing listener",
				"addr":    l.Addr().String(),
			}))
		}
	}
	s.listeners = nil
}

func (s *Service) cleanup() {
	s.closeListeners()

	if util.FileExists(s.SocketPath) {
		grip.Warning(message.WrapError(os.Remove(s.SocketPath), message.Fields{
			"message": "problem removing socket file",
			"socket":  s.SocketPath,
		}))
	}
}

func (s *Service) addRoutes() {
	s.app.AddRoute("/status").Get().Handler(s.statusHandler)
	s.app.AddRoute("/status/cache").Get().Handler(s.cacheStatusHandler)
	s.app.AddRoute("/static/{path:.*}").Get().Handler(s.staticHandler)

	// the mux redirects an empty catch-all match, so the root URL
	// needs its own route
	s.app.AddRoute("/").Get().Post().Put().Patch().Delete().Handler(s.dispatchHandler)
	s.app.AddRoute("/{path:.*}").Get().Post().Put().Patch().Delete().Handler(s.dispatchHandler)
}
