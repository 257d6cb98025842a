package main

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Meizuno/Chat/global"
	"github.com/Meizuno/Chat/logger"
	mid "github.com/Meizuno/Chat/middleware"
	"github.com/Meizuno/Chat/module/user"
	usersvc "github.com/Meizuno/Chat/module/user/service"
	"github.com/Meizuno/Chat/service/chat"
	"github.com/Meizuno/Chat/service/storage"
	redissvc "github.com/Meizuno/Chat/service/storage/redis"
	"github.com/Meizuno/Chat/tools/ids"
)

func main() {
	cfg, err := global.Load()
	if err != nil {
		logger.Errorf("[boot] config: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)
	ids.SetNodeID(cfg.NodeID)

	users, tokens := buildStores(cfg)

	svc := usersvc.New(users, tokens, usersvc.Conf{
		Secret:     cfg.JwtSecret(),
		AccessTTL:  cfg.AccessTokenTTL(),
		ResetTTL:   cfg.ResetTokenTTL(),
		SessionTTL: cfg.SessionTokenTTL(),
	})

	wsServer := chat.NewServer(chat.NewHub(), chat.ServerConf{
		DefaultRoom:   cfg.DefaultRoom,
		SendQueueSize: cfg.SendQueueSize,
		JWT:           svc.AccessTokenOptions(),
	})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), mid.Origin(splitOrigins(cfg.AllowedOrigins)))

	user.NewHandler(svc).Register(r)
	r.GET("/ws", wsServer.HandleWS)

	logger.Infof("[boot] listening on %s (room=%s)", cfg.ListenAddr, cfg.DefaultRoom)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Errorf("[boot] server: %v", err)
		os.Exit(1)
	}
}

// buildStores picks redis-backed stores when an address is configured,
// in-memory otherwise.
func buildStores(cfg *global.AppConfig) (storage.UserStore, storage.TokenStore) {
	if cfg.RedisAddr == "" {
		logger.Warn("[boot] no CHAT_REDIS_ADDR, using in-memory stores")
		return storage.NewMemoryUserStore(), storage.NewMemoryTokenStore()
	}
	err := redissvc.Init(redissvc.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Errorf("[boot] redis: %v", err)
		os.Exit(1)
	}
	rdb := redissvc.Client()
	return storage.NewRedisUserStore(rdb), storage.NewRedisTokenStore(rdb)
}

func splitOrigins(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
