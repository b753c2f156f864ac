package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"clearance-backend/internal/admins"
	googleauth "clearance-backend/internal/auth"
	"clearance-backend/internal/clearance"
	"clearance-backend/internal/documents"
	"clearance-backend/internal/notifications"
	"clearance-backend/internal/services/health"
	"clearance-backend/internal/shared/auth"
	"clearance-backend/internal/shared/config"
	"clearance-backend/internal/shared/server"
	"clearance-backend/internal/shared/server/middleware"
	"clearance-backend/internal/shared/storage/db"
	"clearance-backend/internal/shared/storage/mongostore"
	"clearance-backend/internal/shared/storage/object"
	localstore "clearance-backend/internal/shared/storage/object/local"
	s3store "clearance-backend/internal/shared/storage/object/s3"
	"clearance-backend/internal/shared/telemetry"
	"clearance-backend/internal/students"
)

// App holds shared dependencies and the assembled router.
type App struct {
	Config               config.Config
	Router               *gin.Engine
	DB                   *sql.DB
	Mongo                *mongo.Client
	Store                object.Store
	Tokens               *auth.TokenService
	StudentsRepo         students.Repo
	NotificationsRepo    notifications.Repo
	AdminsRepo           admins.Repo
	StudentsService      *students.Service
	NotificationsService *notifications.Service
	DocumentsService     *documents.Service
	AdminsService        *admins.Service
	GoogleAuth           *googleauth.GoogleService
	Health               *health.Service
}

type repos struct {
	students      students.Repo
	notifications notifications.Repo
	admins        admins.Repo
}

// Build connects the configured backends and wires services, handlers, and routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	app := &App{Config: cfg}

	r, err := app.buildRepos(ctx)
	if err != nil {
		return nil, err
	}
	app.StudentsRepo = r.students
	app.NotificationsRepo = r.notifications
	app.AdminsRepo = r.admins

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.Store = store

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.JWTTTL,
		Issuer: cfg.JWTIssuer,
		Env:    cfg.Env,
	})
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.Tokens = tokens

	app.buildServices()

	app.Health = health.NewService()
	if app.DB != nil {
		sqlDB := app.DB
		app.Health.Register("postgres", func(ctx context.Context) error {
			return db.Ping(ctx, sqlDB)
		})
	}
	if app.Mongo != nil {
		app.Health.Register("mongo", func(ctx context.Context) error {
			return app.Mongo.Ping(ctx, readpref.Primary())
		})
	}

	if err := app.seedAdmin(ctx); err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              cfg,
		Tokens:              tokens,
		StudentHandler:      students.NewHandler(app.StudentsService),
		DocumentHandler:     documents.NewHandler(app.DocumentsService),
		NotificationHandler: notifications.NewHandler(app.NotificationsService),
		AdminHandler:        admins.NewHandler(app.AdminsService),
		GoogleAuth:          app.GoogleAuth,
		LoginLimiter:        middleware.NewRateLimiter(nil),
		Health:              app.Health,
	})

	return app, nil
}

// Close releases database connections.
func (a *App) Close(ctx context.Context) {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			telemetry.Warn("bootstrap.db_close_failed", map[string]any{"error": err.Error()})
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			telemetry.Warn("bootstrap.mongo_close_failed", map[string]any{"error": err.Error()})
		}
	}
}

func (a *App) buildRepos(ctx context.Context) (repos, error) {
	cfg := a.Config
	switch cfg.RecordStore {
	case "postgres":
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return repos{}, fmt.Errorf("connect database: %w", err)
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return repos{}, fmt.Errorf("run migrations: %w", err)
		}
		a.DB = sqlDB
		return repos{
			students:      &students.PGRepo{DB: sqlDB},
			notifications: &notifications.PGRepo{DB: sqlDB},
			admins:        &admins.PGRepo{DB: sqlDB},
		}, nil
	case "mongo":
		client, database, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return repos{}, err
		}
		a.Mongo = client
		studentRepo := students.NewMongoRepo(database)
		noteRepo := notifications.NewMongoRepo(database)
		adminRepo := admins.NewMongoRepo(database)
		if err := mongostore.EnsureIndexes(ctx, studentRepo, noteRepo, adminRepo); err != nil {
			_ = client.Disconnect(ctx)
			a.Mongo = nil
			return repos{}, fmt.Errorf("ensure indexes: %w", err)
		}
		return repos{students: studentRepo, notifications: noteRepo, admins: adminRepo}, nil
	default:
		if !isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"env": cfg.Env})
		}
		return repos{
			students:      students.NewMemoryRepo(),
			notifications: notifications.NewMemoryRepo(),
			admins:        admins.NewMemoryRepo(),
		}, nil
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func (a *App) buildServices() {
	noteSvc := notifications.NewService(a.NotificationsRepo, nil)
	studentSvc := students.NewService(a.StudentsRepo, noteSvc, a.Store, clearance.ParseCompletionPolicy(a.Config.CompletionPolicy))
	noteSvc.Students = studentResolver{svc: studentSvc}

	a.NotificationsService = noteSvc
	a.StudentsService = studentSvc
	a.DocumentsService = &documents.Service{
		Store:    a.Store,
		Records:  studentSvc,
		Provider: a.Config.ObjectStoreType,
		BaseURL:  a.Config.PublicBaseURL,
	}
	a.AdminsService = admins.NewService(a.AdminsRepo, auth.BcryptHasher{}, a.Tokens)
	a.GoogleAuth = googleauth.NewGoogleService(
		a.Config.GoogleClientID,
		a.Config.GoogleClientSecret,
		a.Config.GoogleRedirectURL,
		a.Config.UIRedirectURL,
		studentSvc,
		a.Tokens,
	)
}

func (a *App) seedAdmin(ctx context.Context) error {
	email := strings.TrimSpace(a.Config.BootstrapAdminEmail)
	if email == "" || a.Config.BootstrapAdminPassword == "" {
		return nil
	}
	admin, created, err := a.AdminsService.EnsureExists(ctx, admins.CreateInput{
		Name:     "Administrator",
		Email:    email,
		Password: a.Config.BootstrapAdminPassword,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		telemetry.Info("bootstrap.admin_created", map[string]any{"admin_id": admin.ID})
	}
	return nil
}

// studentResolver maps student lookups onto the notifications package's errors.
type studentResolver struct {
	svc *students.Service
}

func (r studentResolver) ResolveStudentID(ctx context.Context, key string) (string, error) {
	id, err := r.svc.ResolveStudentID(ctx, key)
	if err != nil {
		if errors.Is(err, students.ErrNotFound) {
			return "", notifications.ErrStudentNotFound
		}
		return "", err
	}
	return id, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
