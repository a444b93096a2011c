/*
 * @Description: 应用装配：配置、基础设施、服务、路由
 * @Author: 安知鱼
 * @Date: 2026-03-16 10:35:28
 * @LastEditTime: 2026-03-22 16:15:28
 * @LastEditors: 安知鱼
 */
// anheyu-archive/cmd/server/app.go
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/anzhiyu-c/anheyu-archive/internal/app/bootstrap"
	"github.com/anzhiyu-c/anheyu-archive/internal/app/listener"
	"github.com/anzhiyu-c/anheyu-archive/internal/app/middleware"
	"github.com/anzhiyu-c/anheyu-archive/internal/app/task"
	"github.com/anzhiyu-c/anheyu-archive/internal/infra/awsconf"
	infra_identity "github.com/anzhiyu-c/anheyu-archive/internal/infra/identity"
	"github.com/anzhiyu-c/anheyu-archive/internal/infra/persistence/database"
	ent_impl "github.com/anzhiyu-c/anheyu-archive/internal/infra/persistence/ent"
	"github.com/anzhiyu-c/anheyu-archive/internal/infra/router"
	"github.com/anzhiyu-c/anheyu-archive/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-archive/pkg/config"
	archive_handler "github.com/anzhiyu-c/anheyu-archive/pkg/handler/archive"
	archived_user_handler "github.com/anzhiyu-c/anheyu-archive/pkg/handler/archived_user"
	user_handler "github.com/anzhiyu-c/anheyu-archive/pkg/handler/user"
	"github.com/anzhiyu-c/anheyu-archive/pkg/service/archive"
	"github.com/anzhiyu-c/anheyu-archive/pkg/service/user"
	"github.com/anzhiyu-c/anheyu-archive/pkg/service/user_archive"
	"github.com/anzhiyu-c/anheyu-archive/pkg/service/utility"
)

// App 结构体，用于封装应用的所有核心组件
type App struct {
	cfg         *config.Config
	engine      *gin.Engine
	taskBroker  *task.Broker
	sqlDB       *sql.DB
	redisClient *redis.Client
	eventBus    *event.EventBus
}

func (a *App) PrintBanner() {
	log.Println("--------------------------------------------------------")
	log.Printf(" Anheyu Archive - Version: %s", version.GetVersionString())
	log.Println("--------------------------------------------------------")
}

// NewApp 是应用的构造函数，它执行所有的初始化和依赖注入工作
func NewApp() (*App, func(), error) {
	ctx := context.Background()

	// --- Phase 1: 加载外部配置 ---
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}

	// --- Phase 2: 初始化基础设施 ---
	sqlDB, dialectName, err := database.NewSQLDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("创建数据库连接池失败: %w", err)
	}
	drv, err := database.NewDriver(ctx, sqlDB, dialectName, cfg.GetBool(config.KeyDBDebug))
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	// 尝试连接 Redis（如果失败，将自动降级到进程内锁）
	redisClient, err := database.NewRedisClient(ctx, cfg)
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("redis 初始化失败: %w", err)
	}
	eventBus := event.NewEventBus()

	// 临时cleanup函数，后面会被增强版本替换
	tempCleanup := func() {
		log.Println("执行清理操作：关闭数据库连接...")
		eventBus.Shutdown()
		sqlDB.Close()
		if redisClient != nil {
			log.Println("关闭 Redis 连接...")
			redisClient.Close()
		}
	}

	// --- Phase 3: 初始化数据仓库层 ---
	trigram := ent_impl.WithTrigram(database.TrigramAvailable(ctx, sqlDB, dialectName))
	repos := ent_impl.NewRepositories(drv, dialectName, trigram)
	txManager := ent_impl.NewEntTransactionManager(drv, trigram)

	// --- Phase 4: 初始化应用引导程序 ---
	jwtSecret, err := bootstrap.NewBootstrapper(cfg).Run()
	if err != nil {
		return nil, tempCleanup, fmt.Errorf("启动引导失败: %w", err)
	}

	// --- Phase 5: 初始化外部服务与后台任务 ---
	awsSettings := awsconf.FromConfig(cfg)
	identityProvider := infra_identity.NewProvider(ctx, awsSettings, cfg.GetString(config.KeyCognitoUserPoolID))

	var exporter task.SnapshotExporter
	s3Exporter, err := storage.NewS3SnapshotExporter(ctx, awsSettings,
		cfg.GetString(config.KeyArchiveExportBucket), cfg.GetString(config.KeyArchiveExportPrefix))
	if err != nil {
		log.Printf("⚠️  初始化 S3 快照导出失败: %v，归档用户快照将不会导出", err)
	} else if s3Exporter != nil {
		exporter = s3Exporter
	} else {
		localExporter, err := storage.NewLocalSnapshotExporter(cfg.GetString(config.KeyArchiveExportDir))
		if err != nil {
			log.Printf("⚠️  初始化本地快照导出失败: %v，归档用户快照将不会导出", err)
		} else if localExporter != nil {
			exporter = localExporter
		}
	}

	taskBroker := task.NewBroker(
		identityProvider,
		exporter,
		repos.ArchivedPost,
		repos.ArchivedUser,
		cfg.GetInt(config.KeyArchiveRetentionDays),
	)
	if err := taskBroker.RegisterCronJobs(); err != nil {
		taskBroker.Stop()
		return nil, tempCleanup, err
	}

	// --- Phase 6: 初始化业务逻辑层 ---
	locker := utility.NewKeyLockerWithFallback(redisClient)
	archiveSvc := archive.NewService(txManager, repos.Post, repos.ArchivedPost, eventBus)
	userArchiveSvc := user_archive.NewService(txManager, repos.ArchivedUser, locker, taskBroker, eventBus)
	userSvc := user.NewUserService(txManager, taskBroker)
	_ = listener.NewArchiveListener(eventBus, taskBroker)

	// --- Phase 7: 初始化表现层 (Handlers) ---
	mw := middleware.NewMiddleware(jwtSecret)
	archiveHandler := archive_handler.NewHandler(archiveSvc)
	archivedUserHandler := archived_user_handler.NewHandler(userArchiveSvc)
	userHandler := user_handler.NewUserHandler(userSvc)

	// --- Phase 8: 初始化路由 ---
	appRouter := router.NewRouter(
		archiveHandler,
		archivedUserHandler,
		userHandler,
		mw,
		cfg.GetInt(config.KeyArchiveRateLimit),
	)

	// --- Phase 9: 配置 Gin 引擎 ---
	if cfg.GetBool(config.KeyServerDebug) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Logger(), middleware.Recovery(), middleware.Cors())
	if err := engine.SetTrustedProxies(nil); err != nil {
		log.Printf("⚠️  设置可信代理失败: %v", err)
	}
	appRouter.Setup(engine)

	app := &App{
		cfg:         cfg,
		engine:      engine,
		taskBroker:  taskBroker,
		sqlDB:       sqlDB,
		redisClient: redisClient,
		eventBus:    eventBus,
	}

	// 后台任务的停止由 App.Stop 负责
	return app, tempCleanup, nil
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}

func (a *App) DB() *sql.DB {
	return a.sqlDB
}

// EventBus 返回事件总线，用于发布和订阅事件
func (a *App) EventBus() *event.EventBus {
	return a.eventBus
}

func (a *App) Run() error {
	a.taskBroker.Start()
	port := a.cfg.GetString(config.KeyServerPort)
	if port == "" {
		port = "8091"
	}
	fmt.Printf("应用程序启动成功，正在监听端口: %s\n", port)

	return a.engine.Run(":" + port)
}

func (a *App) Stop() {
	if a.taskBroker != nil {
		a.taskBroker.Stop()
		log.Println("任务调度器已停止。")
	}
}
