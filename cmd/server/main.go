package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/abhijithm34/od-latest/config"
	"github.com/abhijithm34/od-latest/internal/api/handler"
	"github.com/abhijithm34/od-latest/internal/api/router"
	"github.com/abhijithm34/od-latest/internal/repository"
	"github.com/abhijithm34/od-latest/internal/scheduler"
	"github.com/abhijithm34/od-latest/internal/service"
	"github.com/abhijithm34/od-latest/pkg/database"
	"github.com/abhijithm34/od-latest/pkg/jwt"
	applogger "github.com/abhijithm34/od-latest/pkg/logger"
	"github.com/abhijithm34/od-latest/pkg/mailer"
	"github.com/abhijithm34/od-latest/pkg/pdf"
	"github.com/abhijithm34/od-latest/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流功能将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 准备上传目录与审批函生成器
	for _, dir := range []string{cfg.Storage.ProofDir, cfg.Storage.BrochureDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("创建上传目录失败", zap.String("dir", dir), zap.Error(err))
		}
	}
	pdfGen, err := pdf.NewFileGenerator(cfg.Storage.LetterDir)
	if err != nil {
		logger.Fatal("初始化审批函生成器失败", zap.Error(err))
	}

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)

	// 发件人账号：系统设置表中已配置时覆盖配置文件
	creds := func(ctx context.Context) mailer.Credentials {
		settings, err := repo.Settings.Get(ctx)
		if err != nil || settings.SenderEmail == "" {
			return mailer.Credentials{}
		}
		return mailer.Credentials{Email: settings.SenderEmail, Password: settings.SenderEmailPassword}
	}
	notifier := mailer.New(&cfg.Mail, creds, logger)

	svc := service.NewService(cfg, repo, jwtMgr, rdb, pdfGen, notifier, logger)
	h := handler.NewHandler(cfg, svc)

	// 8. 启动超时升级调度器
	escalator := scheduler.NewEscalator(repo, cfg.Scheduler.SweepInterval, logger)
	escalator.Start()

	// 9. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	escalator.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
