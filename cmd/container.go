// cmd/container.go
//
// Composition root. Owns infrastructure (DB, Redis, template storage, relay)
// and wires the dispatcher, notifiers and HTTP handlers.
package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/expomail/pkg/authx"
	"github.com/Abraxas-365/expomail/pkg/config"
	"github.com/Abraxas-365/expomail/pkg/fsx"
	"github.com/Abraxas-365/expomail/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/expomail/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/Abraxas-365/expomail/pkg/mailx/mailxapi"
	"github.com/Abraxas-365/expomail/pkg/mailx/mailxconsole"
	"github.com/Abraxas-365/expomail/pkg/mailx/mailxmemory"
	"github.com/Abraxas-365/expomail/pkg/mailx/mailxpg"
	"github.com/Abraxas-365/expomail/pkg/mailx/mailxredis"
	"github.com/Abraxas-365/expomail/pkg/mailx/mailxses"
	"github.com/Abraxas-365/expomail/pkg/mailx/mailxsmtp"
	"github.com/Abraxas-365/expomail/pkg/notify"
	"github.com/Abraxas-365/expomail/pkg/notify/notifyapi"
	"github.com/Abraxas-365/expomail/pkg/profile"
	"github.com/Abraxas-365/expomail/pkg/profile/profilememory"
	"github.com/Abraxas-365/expomail/pkg/profile/profilepg"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the wired services.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB        *sqlx.DB
	Redis     *redis.Client
	Templates fsx.FileReader
	awsCfg    *aws.Config

	// Email core
	MailConfig mailx.Config
	Transport  mailx.Transport
	Dispatcher *mailx.Dispatcher
	Sweeper    *mailx.Sweeper
	LogReader  mailx.DeliveryLogReader

	// Notifiers
	Profiles profile.Store
	Notifier *notify.Service

	// HTTP
	Auth           *authx.Authenticator
	MailHandlers   *mailxapi.Handlers
	NotifyHandlers *notifyapi.Handlers
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg, MailConfig: cfg.Mail.ToMailx().WithDefaults()}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure: DB, Redis, template storage
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database (delivery log, template overrides, profiles)
	if c.Config.Database.Enabled {
		db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
		if err != nil {
			logx.Fatalf("Failed to connect to database: %v", err)
		}
		db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
		db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
		db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
		c.DB = db
		logx.Info("  ✅ Database connected")
	} else {
		logx.Warn("  ⚠️ Database disabled, using in-memory delivery log and profile store")
	}

	// 2. Redis (template override cache)
	if c.Config.Redis.Enabled {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
			logx.Fatalf("Failed to connect to Redis: %v", err)
		}
		logx.Info("  ✅ Redis connected")
	}

	// 3. Template storage
	c.initTemplateStorage()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) loadAWS() aws.Config {
	if c.awsCfg != nil {
		return *c.awsCfg
	}
	cfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(c.Config.Mail.AWSRegion))
	if err != nil {
		logx.Fatalf("Unable to load AWS SDK config: %v", err)
	}
	c.awsCfg = &cfg
	return cfg
}

func (c *Container) initTemplateStorage() {
	st := c.Config.Storage

	switch st.TemplateStorage {
	case "s3":
		c.Templates = fsxs3.NewS3FileSystem(s3.NewFromConfig(c.loadAWS()), st.TemplateBucket, st.TemplatePrefix)
		logx.Infof("  ✅ S3 template directory configured (bucket: %s, prefix: %s)", st.TemplateBucket, st.TemplatePrefix)

	default:
		dir := c.MailConfig.TemplateDir
		localFS, err := fsxlocal.NewLocalFileSystem(dir)
		if err != nil {
			logx.Fatalf("Failed to open template directory: %v", err)
		}
		c.Templates = localFS
		logx.Infof("  ✅ Local template directory configured (path: %s)", localFS.BasePath())
	}
}

// ---------------------------------------------------------------------------
// Module composition
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	c.initTransport()
	c.initMail()
	c.initNotify()

	c.Auth = authx.New(c.Config.Auth.JWTSecret, c.Config.Auth.APIKeyHash)
	c.MailHandlers = mailxapi.NewHandlers(c.Dispatcher, c.LogReader)
	c.NotifyHandlers = notifyapi.NewHandlers(c.Notifier)
}

func (c *Container) initTransport() {
	mc := c.Config.Mail

	switch mc.Transport {
	case "ses":
		c.Transport = mailxses.New(ses.NewFromConfig(c.loadAWS()))
		logx.Infof("  ✅ SES transport configured (region: %s)", mc.AWSRegion)

	case "console":
		c.Transport = mailxconsole.New()
		logx.Warn("  ⚠️ Console transport configured, emails are logged and not sent")

	default:
		t, err := mailxsmtp.New(mailxsmtp.Config{
			Host:     c.MailConfig.RelayHost,
			Port:     c.MailConfig.RelayPort,
			Username: c.MailConfig.RelayUser,
			Password: c.MailConfig.RelaySecret,
			Security: mailxsmtp.Security(mc.SMTPSecurity),
			DKIM: mailxsmtp.DKIMConfig{
				Selector:   mc.DKIMSelector,
				Domain:     mc.DKIMDomain,
				PrivateKey: mc.DKIMPrivateKey,
				KeyPath:    mc.DKIMKeyPath,
			},
		})
		if err != nil {
			logx.Fatalf("Failed to configure SMTP transport: %v", err)
		}
		c.Transport = t
		logx.Infof("  ✅ SMTP transport configured (%s:%d)", c.MailConfig.RelayHost, c.MailConfig.RelayPort)
	}
}

func (c *Container) initMail() {
	var (
		overrides mailx.OverrideStore
		opts      []mailx.Option
	)

	if c.DB != nil {
		overrides = mailxpg.NewOverrideStore(c.DB)
		pgLog := mailxpg.NewDeliveryLog(c.DB)
		opts = append(opts, mailx.WithDeliveryLog(pgLog))
		c.LogReader = pgLog
	} else {
		memLog := mailxmemory.NewDeliveryLog()
		opts = append(opts, mailx.WithDeliveryLog(memLog))
		c.LogReader = memLog
	}

	if overrides != nil && c.Redis != nil {
		overrides = mailxredis.NewOverrideStore(overrides, c.Redis, c.Config.Redis.TemplateCacheTTL)
		logx.Info("  ✅ Template overrides cached in Redis")
	}

	resolver := mailx.NewTemplateResolver(c.Templates, overrides)
	c.Dispatcher = mailx.New(c.MailConfig, c.Transport, resolver, opts...)
	c.Sweeper = mailx.NewSweeper(c.Dispatcher,
		mailx.WithSweepInterval(c.Config.Mail.SweepInterval),
		mailx.WithShutdownTimeout(30*time.Second),
	)
	logx.Info("  ✅ Email dispatcher initialized")
}

func (c *Container) initNotify() {
	if c.DB != nil {
		c.Profiles = profilepg.New(c.DB)
	} else {
		c.Profiles = profilememory.New()
	}

	opts := []notify.Option{notify.WithBaseURL(c.MailConfig.PublicBaseURL)}
	if d := c.Config.Mail.FanoutDelay; d > 0 {
		opts = append(opts, notify.WithFanoutDelay(d))
	}
	c.Notifier = notify.New(c.Dispatcher, c.Profiles, opts...)
	logx.Info("  ✅ Notifiers initialized")
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices verifies the relay and starts the queue sweeper.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	go func() {
		vctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		c.Dispatcher.VerifyConnection(vctx)
	}()

	go func() {
		if err := c.Sweeper.Start(ctx); err != nil {
			logx.WithError(err).Error("Queue sweeper stopped")
		}
	}()
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if n := c.Dispatcher.QueueLength(); n > 0 {
		logx.Warnf("  ⚠️ %d queued emails are dropped on shutdown", n)
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}

func repeatString(s string, count int) string {
	result := ""
	for range count {
		result += s
	}
	return result
}
