package main

import (
	"log"
	"os"

	"github.com/Kuroson/cs3900-project-sub002/apps/api/echo"
	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/course"
	"github.com/Kuroson/cs3900-project-sub002/core/kudos"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
	"github.com/Kuroson/cs3900-project-sub002/services/auth"
	"github.com/Kuroson/cs3900-project-sub002/services/filestore"
	"github.com/Kuroson/cs3900-project-sub002/services/logger"
	"github.com/Kuroson/cs3900-project-sub002/storage/database/inmem"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)

	var logger core.Logger
	if core.Conf.GetBool("debug") {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std)
	}

	// set up DB
	db, err := inmemdb.Open()
	errAndDie(std, err)
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	kdsRepo := inmemdb.NewKudosRepository(db)

	// set up services
	files, err := filesvc.NewLocalStore()
	errAndDie(std, err)
	catalog := core.NewCatalog(logger)

	usrSvc := user.NewService(usrRepo, logger)
	ledger := kudos.NewLedger(kdsRepo, usrRepo, catalog, logger)
	crsSvc := course.NewService(crsRepo, usrRepo, ledger, logger)
	resolver := course.NewResolver(crsRepo, usrRepo, files, logger)

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Address:   ":8000",
		UserSvc:   usrSvc,
		CourseSvc: crsSvc,
		Resolver:  resolver,
		Ledger:    ledger,
		Catalog:   catalog,
		Verifier:  authsvc.NewVerifier(),
		Files:     files,
		Downloads: files,
		Logger:    logger,
	})
	app.Start()
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
