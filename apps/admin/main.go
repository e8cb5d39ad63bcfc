package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/course"
	"github.com/padhaidunia/padhaidunia/core/user"
	logsvc "github.com/padhaidunia/padhaidunia/services/logger"
	"github.com/padhaidunia/padhaidunia/storage/database"
	sqlxrepos "github.com/padhaidunia/padhaidunia/storage/database/sqlx"
)

var logger *zap.SugaredLogger

func main() {
	conf := core.NewConfig()

	z, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatal(err)
	}
	logger = z.Named("admin")
	defer func() { _ = logger.Sync() }()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), nil)
	cli := commandLine{
		db:       db,
		usrSvc:   usrSvc,
		crsSvc:   course.NewService(sqlxrepos.NewCourseRepository(db), usrSvc),
		validate: validate,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Errorw("command failed", "error", err)
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatalw("setting up", "error", err)
	}
}
