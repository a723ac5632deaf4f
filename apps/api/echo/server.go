package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/course"
	"github.com/Kuroson/cs3900-project-sub002/core/kudos"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
	"github.com/Kuroson/cs3900-project-sub002/services/auth"
	"github.com/Kuroson/cs3900-project-sub002/services/filestore"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc   *user.Service
		CourseSvc *course.Service
		Resolver  *course.Resolver
		Ledger    *kudos.Ledger
		Catalog   *core.Catalog
		Verifier  *authsvc.Verifier
		Files     core.FileStore
		// Downloads, when set, enables the signed file download endpoint.
		Downloads *filesvc.LocalStore
		Logger    core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.GetBool("debug")

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.GetBool("testMode")) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = debug

	s.app.GET("/", home)
	if s.opts.Downloads != nil {
		s.app.GET("/files/:ref", downloadHandler(s.opts.Downloads))
	}

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts)
	registerCourseAPI(v1, jwt, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.GetString("appName")+" API!")
}

// downloadHandler serves stored files, honoring the expiring signature minted
// by LocalStore.URLFor.
func downloadHandler(store *filesvc.LocalStore) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ref := ctx.Param("ref")
		if err := store.VerifyURL(ref, ctx.QueryParam("expires"), ctx.QueryParam("sig")); err != nil {
			return err
		}
		return ctx.File(store.Path(ref))
	}
}
