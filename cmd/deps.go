package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"movienight-cli/config"
	"movienight-cli/listing"
	"movienight-cli/logger"
	"movienight-cli/movienight"
	"movienight-cli/notify"
	"movienight-cli/search"
	"movienight-cli/service"
	"movienight-cli/session"
)

// app is the wiring shared by every command: one client, one session and the
// components built on them.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	closer  io.Closer
	client  *service.Client
	session *session.Store
	listing *listing.Pipeline
	search  *search.Pipeline
	poller  *notify.Poller
	widget  *movienight.Widget
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	closer, err := logger.Configure(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	log := logger.Get()

	client := service.NewClient(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.APIURL)
	client.SetLogger(log)
	client.SetLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst()))

	sess := session.New(client, session.FilePersister{}, log)
	sess.Restore()

	a := &app{
		cfg:     cfg,
		log:     log,
		closer:  closer,
		client:  client,
		session: sess,
		listing: listing.NewPipeline(client, log),
		search:  search.NewPipeline(client, search.FileStorage{TTL: cfg.SearchCacheTTL}, log),
		poller:  notify.NewPoller(client, cfg.PollInterval, &notify.InvitationSlot{}, log),
	}
	a.widget = movienight.NewWidget(client, a.email)
	return a, nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

func (a *app) email() string {
	if user := a.session.Current().User; user != nil {
		return user.Email
	}
	return ""
}

// authed runs fn and, when the server rejects the access token, refreshes
// the session and runs fn once more.
func (a *app) authed(ctx context.Context, fn func(context.Context) error) error {
	if !a.session.IsAuthenticated() {
		return errNotLoggedIn
	}
	err := fn(ctx)
	if err == nil || !errors.Is(err, service.ErrAuth) {
		return err
	}
	a.log.WithError(err).Info("access token rejected, refreshing")
	if _, refreshErr := a.session.Refresh(ctx); refreshErr != nil {
		return refreshErr
	}
	return fn(ctx)
}
