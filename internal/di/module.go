package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/payment"
	"github.com/polkiloo/storefront/internal/adapter/storeapi"
	"github.com/polkiloo/storefront/internal/app"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/logger"
	"github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/server/http/router"
	"github.com/polkiloo/storefront/internal/session"
	"github.com/polkiloo/storefront/internal/storage"
	"github.com/polkiloo/storefront/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		storage.Module,
		session.Module,
		storeapi.Module,
		payment.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
