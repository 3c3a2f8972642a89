// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finboard-assistant-go/internal/config"
	"finboard-assistant-go/internal/handler"
	"finboard-assistant-go/internal/middleware"
	"finboard-assistant-go/internal/pipeline"
	"finboard-assistant-go/internal/repository"
	"finboard-assistant-go/internal/service"
	"finboard-assistant-go/pkg/database"
	"finboard-assistant-go/pkg/embedding"
	"finboard-assistant-go/pkg/es"
	"finboard-assistant-go/pkg/kafka"
	"finboard-assistant-go/pkg/log"
	"finboard-assistant-go/pkg/storage"
	"finboard-assistant-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化存储与消息队列
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	database.InitMySQL(cfg.Database.MySQL.DSN)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	// 会话存储：Redis 主存储 + 进程内降级存储，运行故障后单向切换
	primarySessionRepo := repository.NewSessionRepository(database.RDB, cfg.Assistant.SessionTTL())
	fallbackSessionRepo := repository.NewMemorySessionRepository()
	sessionRepo := repository.NewFailoverSessionRepository(primarySessionRepo, fallbackSessionRepo)

	publicRepo := repository.NewPublicKnowledgeRepository(es.ESClient, cfg.Elasticsearch.PublicIndexName)
	secureRepo := repository.NewSecureKnowledgeRepository(database.DB)
	vectorRepo := repository.NewVectorRepository(es.ESClient, cfg.Elasticsearch.VectorIndexName)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	embeddingQueue := service.NewKafkaEmbeddingQueue(cfg.Kafka)
	archiver := service.NewMinioArchiver()
	sessionService := service.NewSessionService(sessionRepo, vectorRepo, embeddingClient, embeddingQueue, archiver, cfg.Assistant)
	analyticsService := service.NewAnalyticsService(sessionRepo, cfg.Assistant)
	knowledgeService := service.NewKnowledgeService(publicRepo, secureRepo, cfg.Assistant)

	// 6. 启动后台 Kafka 消费者（消息向量化管道）
	processor := pipeline.NewProcessor(embeddingClient, vectorRepo)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	sessionHandler := handler.NewSessionHandler(sessionService, analyticsService)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService)
	healthHandler := handler.NewHealthHandler(sessionRepo, vectorRepo)

	r.GET("/health", healthHandler.Check)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.AuthMiddleware(jwtManager))
	{
		assistant := apiV1.Group("/assistant")
		{
			assistant.POST("/sessions", sessionHandler.CreateSession)
			assistant.GET("/sessions/:sessionId", sessionHandler.GetSession)
			assistant.POST("/sessions/:sessionId/messages", sessionHandler.AddMessage)
			assistant.GET("/sessions/:sessionId/messages", sessionHandler.GetMessages)
			assistant.PUT("/sessions/:sessionId/context", sessionHandler.UpdateContext)
			assistant.PUT("/sessions/:sessionId/context/highlight", sessionHandler.HighlightEntity)
			assistant.PUT("/sessions/:sessionId/context/scenario", sessionHandler.SetScenario)
			assistant.POST("/sessions/:sessionId/actions", sessionHandler.RecordAction)
			assistant.PUT("/sessions/:sessionId/state", sessionHandler.UpdateState)
			assistant.POST("/sessions/:sessionId/end", sessionHandler.EndSession)
			assistant.GET("/search/similar", sessionHandler.SearchSimilar)
			assistant.GET("/analytics/:userId", sessionHandler.GetAnalytics)
		}

		apiV1.POST("/knowledge/query", knowledgeHandler.QueryKnowledge)
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费者是一个循环，会在程序退出时自然结束。
	log.Info("服务已优雅关闭")
}
