package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"earsip/internal/app"
	"earsip/internal/auth"
	"earsip/internal/config"
	"earsip/internal/logging"
	"earsip/internal/services"
)

// bodyOverhead leaves room for the base64 and multipart framing around an
// attachment of the maximum size.
const bodyOverhead = 1024 * 1024

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	close  func() error
}

func NewServer(cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	controller, closeStore, err := app.Open(cfg)
	if err != nil {
		return nil, err
	}

	directory, err := auth.NewDirectory(auth.DefaultAccounts())
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("init accounts: %w", err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	engine.Use(MaxBodySize(cfg.MaxUploadBytes()*2 + bodyOverhead))
	engine.Use(CORS())

	api := NewAPI(controller, directory, auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL), services.NewShareService(cfg))
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg, close: closeStore}, nil
}

func (s *Server) Run() error {
	defer s.close()

	addr := fmt.Sprintf(":%s", s.cfg.Port)
	logger := logging.Component("server")
	logger.Info().Str("addr", addr).Str("storage", s.cfg.StorageDriver).Msg("listening")
	return s.engine.Run(addr)
}
