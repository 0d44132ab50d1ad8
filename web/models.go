package web

import (
	"totalizator-bot/api/api"

	"go.uber.org/zap"
)

// Config holds the configuration for the web server
type Config struct {
	Addr   string
	API    *api.API
	Logger *zap.Logger
}

// Server exposes the read-only export endpoints
type Server struct {
	api    *api.API
	logger *zap.Logger
}
