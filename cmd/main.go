package main

import (
	"github.com/chenBenjamin97/detection-eval/pkg/api"
	"github.com/chenBenjamin97/detection-eval/pkg/config"
	"github.com/chenBenjamin97/detection-eval/pkg/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func main() {
	if err := config.Load(); err != nil {
		logrus.Fatalf("Error: Could not read config file, got '%v'", err)
	}
	config.SetupLogging(viper.GetViper())

	//create missing directories from config file
	if err := config.CreateDirectories(viper.GetViper()); err != nil {
		logrus.Fatalf("Error: Got '%v'", err)
	}

	if viper.GetString("directory.ground_truth") == "" || viper.GetString("directory.predicted") == "" || viper.GetString("http.port") == "" {
		logrus.Fatalf("Error: Missing critical configurations")
	}

	r := api.SetRouter(metrics.New())
	if err := r.Run(":" + viper.GetString("http.port")); err != nil {
		logrus.Fatalf("Error: Got '%v'", err)
	}
}
