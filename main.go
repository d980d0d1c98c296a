package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/skillspark/config"
	"github.com/kevinaaaquil/skillspark/handlers"
	"github.com/kevinaaaquil/skillspark/service"
	"github.com/kevinaaaquil/skillspark/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"
)

func main() {
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Name = "skillspark"
	app.Usage = "REST backend for the SkillSpark book and course catalog"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "port",
			EnvVar: "PORT",
			Usage:  "tcp port the http server listens on",
			Value:  "5000",
		},
		cli.StringFlag{
			Name:   "log-format",
			EnvVar: "LOG_FORMAT",
			Usage:  "format of the logging out, either of json or text.",
			Value:  "json",
		},
		cli.StringFlag{
			Name:   "log-level",
			EnvVar: "LOG_LEVEL",
			Usage:  "log level for the application",
			Value:  "info",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log := getLogger(c)

	cfg, err := config.Load()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("config: %s", err), 2)
	}
	cfg.Port = c.String("port")

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("mongodb: %s", err), 2)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.WithError(err).Error("mongodb disconnect")
		}
	}()

	var media service.MediaSink = service.DisabledSink{}
	if cfg.S3Bucket != "" {
		media, err = service.NewS3Service(ctx, service.S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Endpoint:        cfg.S3Endpoint,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("s3: %s", err), 2)
		}
	} else {
		log.Warn("AWS_S3_BUCKET not set; uploads will fail")
	}

	books := &service.BookService{
		Store:         db,
		Media:         media,
		Log:           log.WithField("component", "books"),
		ImagePolicy:   cfg.ImagePolicy,
		ImageMaxEdge:  cfg.ImageMaxEdge,
		UploadTimeout: cfg.UploadTimeout,
	}
	courses := &service.CourseService{Store: db}

	router := handlers.NewRouter(handlers.RouterOptions{
		Books: &handlers.BooksHandler{
			Books: books,
			Intake: handlers.Intake{
				MaxUploadBytes: cfg.MaxUploadBytes(),
				MaxFileBytes:   cfg.MaxFileBytes(),
			},
			Log: log,
		},
		Courses: &handlers.CoursesHandler{Courses: courses, MaxBytes: cfg.MaxUploadBytes(), Log: log},
		Health:  db,
		Log:     log,
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	errc := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return cli.NewExitError(fmt.Sprintf("http server: %s", err), 2)
	case <-quit:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	return nil
}

func getLogger(c *cli.Context) *logrus.Entry {
	log := logrus.New()
	log.Out = os.Stderr
	switch c.GlobalString("log-format") {
	case "text":
		log.Formatter = &logrus.TextFormatter{
			TimestampFormat: "02/Jan/2006:15:04:05",
		}
	default:
		log.Formatter = &logrus.JSONFormatter{
			TimestampFormat: "02/Jan/2006:15:04:05",
		}
	}
	if level, err := logrus.ParseLevel(c.GlobalString("log-level")); err == nil {
		log.Level = level
	}
	return logrus.NewEntry(log)
}
