package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-taskmaster/authn"
	"github.com/jrsteele09/go-taskmaster/guard"
	"github.com/jrsteele09/go-taskmaster/internal/config"
	"github.com/jrsteele09/go-taskmaster/organizations"
	"github.com/jrsteele09/go-taskmaster/policy"
	"github.com/jrsteele09/go-taskmaster/projects"
	"github.com/jrsteele09/go-taskmaster/session"
	"github.com/jrsteele09/go-taskmaster/tasks"
	"github.com/jrsteele09/go-taskmaster/tokenstore"
	"github.com/jrsteele09/go-taskmaster/transport"
)

// app wires config -> logger -> token store -> session -> pipeline -> services
// for one CLI invocation.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	store   *tokenstore.SQLiteStore
	session *session.Service
	guard   *guard.Guard

	auth     *authn.Service
	orgs     *organizations.Service
	projects *projects.Service
	tasks    *tasks.Service
}

var application *app

// getApp lazily builds the application the first time a command needs it.
func getApp() (*app, error) {
	if application != nil {
		return application, nil
	}

	cfg := config.New()
	log := newLogger(cfg)

	store, err := tokenstore.OpenSQLite(cfg.GetDataFolder())
	if err != nil {
		return nil, errors.Wrap(err, "[getApp] open token store")
	}

	sess, err := session.New(store,
		session.WithLogger(log),
		session.WithLoginBoundary(cfg.GetLoginBoundary()),
		session.WithNavigator(func(string) {
			fmt.Fprintln(os.Stderr, "Session ended. Run 'taskmaster login' to sign in again.")
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[getApp] create session")
	}

	pipeline, err := transport.NewPipeline(cfg.GetAPIBaseURL(), store, sess,
		transport.WithPipelineLogger(log))
	if err != nil {
		return nil, errors.Wrap(err, "[getApp] create pipeline")
	}

	client, err := transport.NewClient(cfg.GetAPIBaseURL(), pipeline,
		transport.WithClientLogger(log),
		transport.WithHTTPTimeout(cfg.GetHTTPTimeout()))
	if err != nil {
		return nil, errors.Wrap(err, "[getApp] create client")
	}

	routeGuard, err := guard.New(sess, func(string) {
		fmt.Fprintln(os.Stderr, "Not logged in. Run 'taskmaster login' first.")
	}, guard.WithLoginBoundary(cfg.GetLoginBoundary()))
	if err != nil {
		return nil, errors.Wrap(err, "[getApp] create guard")
	}

	authService, err := authn.NewService(client, sess, authn.WithLogger(log))
	if err != nil {
		return nil, errors.Wrap(err, "[getApp] create auth service")
	}
	orgService, err := organizations.NewService(client)
	if err != nil {
		return nil, errors.Wrap(err, "[getApp] create organization service")
	}
	projectService, err := projects.NewService(client)
	if err != nil {
		return nil, errors.Wrap(err, "[getApp] create project service")
	}
	taskService, err := tasks.NewService(client)
	if err != nil {
		return nil, errors.Wrap(err, "[getApp] create task service")
	}

	application = &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		session:  sess,
		guard:    routeGuard,
		auth:     authService,
		orgs:     orgService,
		projects: projectService,
		tasks:    taskService,
	}
	return application, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// requireOrg resolves the organization id from the flag or the session's
// active organization.
func (a *app) requireOrg(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if org := a.session.ActiveOrganizationID(); org != "" {
		return org, nil
	}
	return "", errors.New("no organization selected; pass --org or log in to an account with one")
}

// viewerRole resolves the caller's own role in the organization, used to gate
// administrative commands. Advisory only, the backend enforces for real.
func (a *app) viewerRole(ctx context.Context, orgID string) (policy.Role, []organizations.Member, error) {
	user := a.session.CurrentUser()
	if user == nil {
		fetched, err := a.auth.Me(ctx)
		if err != nil {
			return "", nil, errors.Wrap(err, "[viewerRole] resolve identity")
		}
		user = fetched
	}

	members, _, err := a.orgs.Members(ctx, orgID, transport.Page{Limit: 100})
	if err != nil {
		return "", nil, errors.Wrap(err, "[viewerRole] list members")
	}

	role := organizations.RoleOf(members, user.ID)
	if role == "" {
		return "", nil, errors.Errorf("you are not a member of organization %s", orgID)
	}
	return role, members, nil
}

func memberRole(members []organizations.Member, userID string) (policy.Role, error) {
	role := organizations.RoleOf(members, userID)
	if role == "" {
		return "", errors.Errorf("user %s is not a member of this organization", userID)
	}
	return role, nil
}
