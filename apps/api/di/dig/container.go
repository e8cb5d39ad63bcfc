package dig_container

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/padhaidunia/padhaidunia/apps/api/echo"
	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/chat"
	"github.com/padhaidunia/padhaidunia/core/course"
	"github.com/padhaidunia/padhaidunia/core/notification"
	"github.com/padhaidunia/padhaidunia/core/user"
	cachesvc "github.com/padhaidunia/padhaidunia/services/cache"
	emailsvc "github.com/padhaidunia/padhaidunia/services/email"
	logsvc "github.com/padhaidunia/padhaidunia/services/logger"
	"github.com/padhaidunia/padhaidunia/storage/database"
	sqlxrepos "github.com/padhaidunia/padhaidunia/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Closer releases the resources the container opened besides the DB.
type Closer struct {
	zap   *zap.SugaredLogger
	redis *redis.Client
}

func (c Closer) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
	_ = c.zap.Sync()
}

func newZap(conf *core.Config) *zap.SugaredLogger {
	z, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatal(errors.Wrap(err, "building zap logger").Error())
	}
	return z
}

func newLogger(conf *core.Config, z *zap.SugaredLogger) core.Logger {
	logger := logsvc.NewRollbarLogger(z.Named("api"), conf)
	if conf.Debug {
		logger.Enable(false)
	}
	return logger
}

func newDBLogger(conf *core.Config, z *zap.SugaredLogger) core.Logger {
	return logsvc.NewRollbarLogger(z.Named("db"), conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

// newRedis returns nil when no Redis server is configured.
func newRedis(conf *core.Config, logger core.Logger) *redis.Client {
	if !conf.Redis.Enabled() {
		logger.Info("redis disabled: no unread count cache, no send rate limit")
		return nil
	}
	client := cachesvc.NewRedisClient(conf)
	if err := cachesvc.Ping(context.Background(), client); err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return client
}

func newUnreadCountCache(conf *core.Config, client *redis.Client) notification.Cache {
	if client == nil {
		return nil
	}
	return cachesvc.NewUnreadCountCache(client, conf)
}

func newSendLimiter(conf *core.Config, client *redis.Client) echoapi.RateLimiter {
	if client == nil {
		return nil
	}
	return cachesvc.NewSendRateLimiter(client, conf)
}

func newCloser(z *zap.SugaredLogger, client *redis.Client) Closer {
	return Closer{zap: z, redis: client}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

type depsParam struct {
	dig.In
	UserSvc         user.Service
	CourseSvc       course.Service
	ChatSvc         chat.Service
	NotificationSvc notification.Service
	Validate        *validator.Validate
	Translator      ut.Translator
	SendLimiter     echoapi.RateLimiter
}

func newDeps(p depsParam) *echoapi.Deps {
	return &echoapi.Deps{
		UserSvc:         p.UserSvc,
		CourseSvc:       p.CourseSvc,
		ChatSvc:         p.ChatSvc,
		NotificationSvc: p.NotificationSvc,
		Validate:        p.Validate,
		Translator:      p.Translator,
		SendLimiter:     p.SendLimiter,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newZap))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(database.NewTransactor, dig.As(new(core.Transactor))))
	must(c.Provide(newRedis))
	must(c.Provide(newUnreadCountCache))
	must(c.Provide(newSendLimiter))
	must(c.Provide(newCloser))
	must(c.Provide(newEmailService))
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewCourseRepository))
	must(c.Provide(sqlxrepos.NewMessageRepository))
	must(c.Provide(sqlxrepos.NewNotificationRepository))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(notification.NewService))
	must(c.Provide(chat.NewService))
	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
