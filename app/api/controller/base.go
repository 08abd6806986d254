package controller

import (
	"context"

	"videoadguard/app/config"
	"videoadguard/app/service/detect"
	"videoadguard/app/service/settings"
	"videoadguard/app/service/whitelist"

	"github.com/samber/do"
)

type Server struct {
	appCtx           context.Context
	cfg              *config.Config
	settingsService  *settings.Service
	whitelistService *whitelist.Service
	detectService    *detect.Service
}

func NewServer(di *do.Injector) *Server {
	return &Server{
		appCtx:           do.MustInvoke[context.Context](di),
		cfg:              do.MustInvoke[*config.Config](di),
		settingsService:  do.MustInvoke[*settings.Service](di),
		whitelistService: do.MustInvoke[*whitelist.Service](di),
		detectService:    do.MustInvoke[*detect.Service](di),
	}
}
