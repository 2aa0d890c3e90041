package main

import (
	"context"
	"math/rand"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/PranavAsoori/gymgame/internal/config"
	"github.com/PranavAsoori/gymgame/internal/handlers"
	"github.com/PranavAsoori/gymgame/internal/repository"
	"github.com/PranavAsoori/gymgame/internal/scheduler"
	"github.com/PranavAsoori/gymgame/internal/service"
	"github.com/PranavAsoori/gymgame/internal/setup"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx := context.Background()
	client, err := repository.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer client.Disconnect(ctx)
	logger.Info("connected to mongo")

	db := client.Database(cfg.MongoDB)
	users := repository.NewMongoUserStore(db)
	games := repository.NewMongoGameStore(db)

	// Each component owns its RNG; a *rand.Rand is not safe to share across
	// their separately-locked call paths.
	svc := service.NewService(users, games, rand.New(rand.NewSource(time.Now().UnixNano())))
	setupMgr := setup.NewManager(rand.New(rand.NewSource(time.Now().UnixNano() + 1)))

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("bot init", zap.Error(err))
	}
	logger.Info("bot authorized", zap.String("username", bot.Self.UserName))

	handler := handlers.NewBotHandler(bot, svc, setupMgr, cfg.AdminID, cfg.GroupChatID, logger)

	sched := scheduler.New(svc, handler.AnnounceEndDay, cfg.DailyCron, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}
	defer sched.Stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message"}

	logger.Info("bot is running")
	for update := range bot.GetUpdatesChan(u) {
		handler.HandleUpdate(update)
	}
}
