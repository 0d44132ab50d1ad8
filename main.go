/* main.go
 * The "main" method for running the bot. For details about the bot see
 * `readme.md`.
 * Usage: go run main.go [-db=<name>] [-tz=<zone>] [-addr=<host:port>]
 */

package main

import (
	"context"
	"flag"
	"log"
	"os"

	"totalizator-bot/api/api"
	"totalizator-bot/bot"
	"totalizator-bot/logger"
	"totalizator-bot/web"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	err := godotenv.Load()

	// Flags
	dbPtr := flag.String("db", "totalizator", "MongoDB database name")
	tzPtr := flag.String("tz", "Europe/Moscow", "Zone used for entering and displaying kickoff times")
	addrPtr := flag.String("addr", ":8080", "Listen address for the export HTTP server")

	flag.Parse()

	if err != nil {
		log.Println("No .env file found, relying on the environment")
	}

	appEnv := os.Getenv("APP_ENV")
	zlog, err := logger.New("totalizator-bot", appEnv)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	apiPtr, err := api.NewAPI(*dbPtr, os.Getenv("MONGO_URI"), *tzPtr)
	if err != nil {
		zlog.Fatal("failed to initialize API", zap.Error(err))
	}
	defer func() {
		if err := apiPtr.Store.GetClient().Disconnect(context.TODO()); err != nil {
			zlog.Error("failed to disconnect mongo client", zap.Error(err))
		}
	}()

	// Export server for the CSV dump and the reminder scheduler
	go func() {
		cfg := web.Config{
			Addr:   *addrPtr,
			API:    apiPtr,
			Logger: zlog,
		}
		if err := web.Start(cfg); err != nil {
			zlog.Error("web server stopped", zap.Error(err))
		}
	}()

	b, err := bot.NewBot(
		os.Getenv("DISCORD_TOKEN"),
		os.Getenv("DISCORD_GUILD_ID"),
		os.Getenv("MAINTAINER_ID"),
		apiPtr,
		zlog,
	)
	if err != nil {
		zlog.Fatal("failed to initialize bot", zap.Error(err))
	}
	if err := b.Run(); err != nil {
		zlog.Fatal("bot stopped", zap.Error(err))
	}
}
