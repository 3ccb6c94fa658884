package ui

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/auth"
	"github.com/Faultbox/glbviewer/internal/frame"
	"github.com/Faultbox/glbviewer/internal/library"
	"github.com/Faultbox/glbviewer/internal/logger"
	"github.com/Faultbox/glbviewer/internal/store"
)

// Screen identifies the visible screen.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenLibrary
	ScreenViewer
)

// Studio routes between the screens and drives the frame scheduler once
// per backend frame.
type Studio struct {
	backend *Backend
	chor    *frame.Choreographer
	auth    *auth.Service
	log     *zap.Logger

	screen  Screen
	login   *LoginScreen
	library *LibraryScreen
	viewer  *ViewerScreen
}

// NewStudio assembles the screens. vd.Poster must be the queue the
// choreographer drains.
func NewStudio(b *Backend, chor *frame.Choreographer, svc *auth.Service, lib *library.Library, vd ViewerDeps) *Studio {
	s := &Studio{
		backend: b,
		chor:    chor,
		auth:    svc,
		log:     logger.Named("ui"),
	}
	s.login = NewLoginScreen(svc, vd.Poster, s.signedIn)
	s.library = NewLibraryScreen(lib, vd.Poster, s.openModel, s.signOut)
	s.viewer = NewViewerScreen(vd, s.closeModel)
	return s
}

// AutoLogin tries the saved login in the background and skips the login
// screen when it works.
func (s *Studio) AutoLogin(ctx context.Context) {
	poster := s.viewer.poster
	go func() {
		u, ok, err := s.auth.AutoLogin(ctx)
		if err != nil {
			s.log.Info("automatic sign-in failed", zap.Error(err))
		}
		if !ok {
			return
		}
		poster.Post(func() {
			if s.screen == ScreenLogin {
				s.signedIn(u, s.auth.State().Role)
			}
		})
	}()
}

// Screen returns the visible screen.
func (s *Studio) Screen() Screen {
	return s.screen
}

const studioTitle = "GLB Studio"

func (s *Studio) show(screen Screen, subtitle string) {
	s.screen = screen
	title := studioTitle
	if subtitle != "" {
		title += " - " + subtitle
	}
	s.backend.SetWindowTitle(title)
}

func (s *Studio) signedIn(u store.User, role auth.Role) {
	user := u.Email + " (" + role.String() + ")"
	s.library.SetUser(user)
	s.show(ScreenLibrary, user)
	s.library.Refresh()
}

func (s *Studio) signOut() {
	go func() {
		if err := s.auth.Logout(context.Background()); err != nil {
			s.log.Warn("sign out failed", zap.Error(err))
		}
	}()
	s.show(ScreenLogin, "")
}

func (s *Studio) openModel(m store.Model) {
	s.viewer.Open(m)
	s.show(ScreenViewer, m.Name)
}

func (s *Studio) closeModel() {
	s.viewer.Close()
	s.show(ScreenLibrary, s.library.user)
	s.library.Refresh()
}

// Run blocks in the backend loop until the window closes. GL resources are
// released before the context goes away.
func (s *Studio) Run() {
	s.backend.OnClose(s.Close)
	s.backend.Run(s.frame)
}

// frame runs posted work and due frame callbacks, then lays out the UI.
func (s *Studio) frame() {
	s.chor.DoFrame(time.Now().UnixNano())

	x, y, w, h := s.backend.GetViewport()
	switch s.screen {
	case ScreenLogin:
		s.login.Render(w, h)
	case ScreenLibrary:
		s.library.Render(x, y, w, h)
	case ScreenViewer:
		s.viewer.Render(x, y, w, h)
	}
}

// Close releases UI textures and destroys the viewer session.
func (s *Studio) Close() {
	s.library.Close()
	s.viewer.host.Destroy()
}
