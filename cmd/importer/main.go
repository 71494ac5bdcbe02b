// Command importer loads customers from a semicolon-separated CSV file.
//
//	importer --file customers.csv
//
// Database settings come from the same environment variables as the server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"minicrm/internal/config"
	"minicrm/internal/database"
	"minicrm/internal/importer"
	"minicrm/internal/repositories"
	"minicrm/internal/services"
)

func main() {
	flags := pflag.NewFlagSet("importer", pflag.ExitOnError)
	flags.String("file", "customers.csv", "path of the CSV file to import")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	config.SetDefaults(v)
	v.SetDefault("IMPORT_FILE", "customers.csv")
	v.AutomaticEnv()
	_ = v.BindPFlag("IMPORT_FILE", flags.Lookup("file"))

	log := logrus.NewEntry(logrus.StandardLogger()).WithField("service", "minicrm-importer")

	cfg, err := config.FromViper(v)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	path := v.GetString("IMPORT_FILE")
	file, err := os.Open(path)
	if err != nil {
		log.WithError(err).WithField("file", path).Fatal("failed to open CSV file")
	}
	defer file.Close()

	db, err := database.Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	customers := services.NewCustomerService(repositories.NewGORMStore(db), cfg.CustomerListLimit, log)
	stats, err := importer.New(customers, log).Import(ctx, file)
	entry := log.WithFields(logrus.Fields{
		"file":      path,
		"total":     stats.Total,
		"success":   stats.Success,
		"duplicate": stats.Duplicate,
		"invalid":   stats.Invalid,
	})
	if err != nil {
		entry.WithError(err).Error("import aborted")
		os.Exit(1)
	}
	entry.Info("import finished")
}
