package server

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"duoverse-backend/internal/auth"
	"duoverse-backend/internal/cache"
	"duoverse-backend/internal/config"
	"duoverse-backend/internal/handler"
	"duoverse-backend/internal/qrcode"
	"duoverse-backend/internal/service"
	"duoverse-backend/internal/storage"
	"duoverse-backend/internal/web"
	"duoverse-backend/internal/youtube"
)

// Deps 서버가 사용하는 외부 자원
type Deps struct {
	DB      *gorm.DB
	Redis   *cache.RedisClient // nil 이면 메모리 limiter
	YouTube *youtube.Client
	Store   storage.Store
	Log     *zap.Logger
	Now     func() time.Time // nil 이면 time.Now
}

// Server Fiber 서버 래퍼
type Server struct {
	app   *fiber.App
	cfg   *config.Config
	redis *cache.RedisClient
	log   *zap.Logger

	tokens             *auth.HostTokenManager
	meetingHandler     *handler.MeetingHandler
	joinRequestHandler *handler.JoinRequestHandler
	chatHandler        *handler.ChatHandler
	galleryHandler     *handler.GalleryHandler
	youtubeHandler     *handler.YouTubeHandler
	pageHandler        *handler.PageHandler
	healthHandler      *handler.HealthHandler
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	app := fiber.New(fiber.Config{
		AppName:               "DuoVerse",
		ServerHeader:          "Fiber",
		StrictRouting:         false,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		BodyLimit:             cfg.Storage.MaxUploadBytes,
		Views:                 web.Engine(),
		ErrorHandler:          offlineErrorHandler(cfg),
		DisableStartupMessage: cfg.IsProduction(),
	})

	tokens := auth.NewHostTokenManager(cfg.Auth.SecretKey, cfg.Auth.HostTokenExpiry)
	meetings := service.NewMeetingService(deps.DB, deps.Now)
	requests := service.NewJoinRequestService(deps.DB, deps.Now)
	watch := service.NewWatchService(deps.DB, deps.Now)
	qr := qrcode.NewGenerator(cfg.Storage.QRDir, deps.Now, deps.Log)

	return &Server{
		app:                app,
		cfg:                cfg,
		redis:              deps.Redis,
		log:                deps.Log,
		tokens:             tokens,
		meetingHandler:     handler.NewMeetingHandler(meetings, qr, tokens, cfg, deps.Log),
		joinRequestHandler: handler.NewJoinRequestHandler(meetings, requests, tokens, cfg.Auth.RequireHostToken, deps.Log),
		chatHandler:        handler.NewChatHandler(deps.DB, meetings, deps.Log),
		galleryHandler:     handler.NewGalleryHandler(deps.DB, meetings, deps.Store, cfg.Auth.GalleryPassword, deps.Log),
		youtubeHandler:     handler.NewYouTubeHandler(meetings, watch, deps.YouTube, deps.Log),
		pageHandler:        handler.NewPageHandler(meetings, qr, tokens, cfg, deps.Log),
		healthHandler:      handler.NewHealthHandler(deps.DB, deps.Redis, deps.YouTube),
	}
}

// App 테스트용 Fiber 앱
func (s *Server) App() *fiber.App {
	return s.app
}

// offlineErrorHandler 처리되지 않은 에러는 상태 코드와 함께 오프라인 페이지로
func offlineErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		if renderErr := c.Status(code).Render("offline", handler.CommonData(cfg, time.Now())); renderErr != nil {
			return c.Status(code).SendString(err.Error())
		}
		return nil
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: !s.cfg.IsProduction(),
	}))

	s.app.Use(requestid.New())

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${locals:requestid} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// YouTube iframe 임베드를 막지 않도록 COEP 해제
	s.app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	// 정적 파일: 업로드/QR 디렉터리는 static 밖에 있어도 같은 URL 로 제공
	s.app.Static("/static/uploads", s.cfg.Storage.UploadDir)
	s.app.Static("/static/qrcodes", s.cfg.Storage.QRDir)
	s.app.Static("/static", s.cfg.Storage.StaticDir)
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// 입장 요청 생성 제한 (IP 기준, Redis 가 있으면 프로세스 간 공유)
	joinLimiterCfg := limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "join:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	}
	if s.redis != nil {
		joinLimiterCfg.Storage = s.redis.LimiterStorage()
	}
	joinLimiter := limiter.New(joinLimiterCfg)

	hostOnly := auth.RequireHostToken(s.tokens, s.cfg.Auth.RequireHostToken)

	api := s.app.Group("/api")

	// 미팅
	api.Post("/create-meeting", s.meetingHandler.CreateMeeting)
	api.Post("/end-meeting/:room", hostOnly, s.meetingHandler.EndMeeting)
	api.Get("/check-meeting-active/:room", s.meetingHandler.CheckMeetingActive)
	api.Get("/generate-qr/:room", s.meetingHandler.GenerateQR)

	// 입장 요청
	api.Post("/join-request/:room", joinLimiter, s.joinRequestHandler.Create)
	api.Post("/join-request/:id/:action", s.joinRequestHandler.Respond)
	api.Get("/join-requests/all/:room", hostOnly, s.joinRequestHandler.All)
	api.Get("/join-requests/stats/:room", hostOnly, s.joinRequestHandler.Stats)
	api.Get("/join-requests/export/:room", hostOnly, s.joinRequestHandler.Export)
	api.Post("/join-requests/batch-accept/:room", hostOnly, s.joinRequestHandler.BatchAccept)
	api.Post("/join-requests/batch-reject/:room", hostOnly, s.joinRequestHandler.BatchReject)
	api.Post("/join-requests/clear-rejected/:room", hostOnly, s.joinRequestHandler.ClearRejected)
	api.Get("/join-requests/:room", hostOnly, s.joinRequestHandler.Pending)
	api.Get("/join-request-status/:room", s.joinRequestHandler.Status)
	api.Get("/check-join-status/:room", s.joinRequestHandler.CheckAccepted)
	api.Post("/clear-rejected-request/:room", s.joinRequestHandler.ClearRejectedFor)

	// 채팅 (폴링)
	api.Post("/send-message/:room", s.chatHandler.SendMessage)
	api.Get("/messages/:room", s.chatHandler.GetMessages)

	// 갤러리
	api.Post("/upload-image/:room", s.galleryHandler.Upload)
	api.Get("/gallery-images/:room", s.galleryHandler.List)
	api.Delete("/delete-image/:id", s.galleryHandler.Delete)

	// 같이 보기
	yt := api.Group("/youtube")
	yt.Get("/session/:room", s.youtubeHandler.Session)
	yt.Post("/load", s.youtubeHandler.Load)
	yt.Post("/play", s.youtubeHandler.Play)
	yt.Post("/seek", s.youtubeHandler.Seek)
	yt.Post("/volume", s.youtubeHandler.Volume)
	yt.Post("/add-to-playlist", s.youtubeHandler.AddToPlaylist)
	yt.Post("/remove-from-playlist", s.youtubeHandler.RemoveFromPlaylist)
	yt.Get("/video/:videoId", s.youtubeHandler.Video)
	yt.Get("/search", s.youtubeHandler.Search)

	// 페이지
	s.app.Get("/", s.pageHandler.Intro)
	s.app.Get("/setup", s.pageHandler.Setup)
	s.app.Get("/offline.html", s.pageHandler.Offline)
	s.app.Get("/manifest.json", s.pageHandler.Manifest)
	s.app.Get("/meeting-links/:room", s.pageHandler.MeetingLinks)
	s.app.Get("/meet/:room", s.pageHandler.Meet)
	s.app.Get("/chat/:room", s.pageHandler.Chat)
	s.app.Get("/capture/:room", s.pageHandler.Capture)
	s.app.Get("/gallery/:room", s.pageHandler.Gallery)
	s.app.Get("/join-requests/:room", s.pageHandler.JoinRequests)
	s.app.Get("/join-request/:room", s.pageHandler.JoinRequestForm)
	s.app.Get("/qr/download/:room", s.pageHandler.QRDownload)
	s.app.Get("/qr/:room", s.pageHandler.QRView)

	// 그 외 경로는 404 오프라인 페이지
	s.app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		s.log.Info("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			s.log.Error("server shutdown error", zap.Error(err))
		}
	}()

	s.log.Info("🚀 DuoVerse starting",
		zap.String("addr", s.cfg.Server.Port),
		zap.String("environment", string(s.cfg.Env)))

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
