// Copyright 2026 Polaris Rocketry
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jasonlvhit/gocron"
	"github.com/qiniu/x/log"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	"github.com/polaris-rocketry/polaris-server/internal/service/task"
	"github.com/polaris-rocketry/polaris-server/internal/service/web"
)

var (
	configFilePath = "polaris-server.conf"
)

func main() {
	flag.StringVar(&configFilePath, "f", configFilePath, "configuration file to run polaris server")
	flag.Parse()

	utils.InitConf(configFilePath)
	log.SetOutputLevel(utils.DefaultConf.DebugLevel)
	rand.Seed(time.Now().UnixNano())

	go func() {
		cleanupTask, err := task.NewCleanupTask(&utils.DefaultConf)
		if err != nil {
			log.Errorf("failed to create cleanup task, error %v", err)
			return
		}
		_ = gocron.Every(10).Minutes().Do(cleanupTask.PurgeRateLimitCounters)
		_ = gocron.Every(1).Hours().Do(cleanupTask.SweepStaleSlots)
		<-gocron.Start()
	}()

	r, err := web.NewRouter(&utils.DefaultConf)
	if err != nil {
		log.Fatalf("failed to create gin HTTP server, error %v", err)
	}

	errch := make(chan error, 1)
	go func() {
		httpServerErr := r.Run(utils.DefaultConf.ListenAddr)
		errch <- httpServerErr
	}()

	qC := make(chan os.Signal, 1)
	signal.Notify(qC, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-qC:
		log.Info(s.String())
	case err = <-errch:
		log.Error("server stopped, error", err.Error())
	}
}
