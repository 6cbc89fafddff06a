// Copyright 2019 The go-ultiledger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ultiledger/go-ultimint/log"
	"github.com/ultiledger/go-ultimint/node"
	"github.com/ultiledger/go-ultimint/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sandbox ledger",
	Long: `Start the sandbox ledger with the specified configuration. A persistent
database backend recovers the ledger state of the previous run, the
genesis accounts are funded only when the ledger is created.`,
	Run: func(cmd *cobra.Command, args []string) {
		defer log.Sync()

		c, err := node.NewConfig(viper.GetViper())
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}
		n, err := node.NewNode(c, log.Named("node"))
		if err != nil {
			log.Fatalf("create node failed: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := n.Start(ctx); err != nil {
			n.Stop()
			log.Fatalf("start node failed: %v", err)
		}
		log.Infow("sandbox started", "master", n.MasterAccountID(), "ledger", n.LatestLedger().SeqNum)

		srv := &http.Server{
			Addr:              c.Addr,
			Handler:           server.NewHandler(n, log.Named("server")),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		log.Infof("start to serve http requests on %s", c.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("serve http failed: %v", err)
		}
		if err := n.Stop(); err != nil {
			log.Errorf("stop node failed: %v", err)
		}
	},
}

func init() {
	startCmd.Flags().String("addr", ":8000", "network address")
	startCmd.Flags().String("network_id", "", "network passphrase")
	startCmd.Flags().String("db_backend", "boltdb", "database backend (boltdb or memdb)")
	startCmd.Flags().String("db_path", "ultsandbox.db", "database file path")
	for _, name := range []string{"addr", "network_id", "db_backend", "db_path"} {
		viper.BindPFlag(name, startCmd.Flags().Lookup(name))
	}

	rootCmd.AddCommand(startCmd)
}
