package gateway

import (
	buspkg "github.com/chatwire/gateway/bus"
	apierrorpkg "github.com/chatwire/gateway/internal/gateway/apierror"
	broadcastpkg "github.com/chatwire/gateway/internal/gateway/broadcast"
	configpkg "github.com/chatwire/gateway/internal/gateway/config"
	hubpkg "github.com/chatwire/gateway/internal/gateway/hub"
	idspkg "github.com/chatwire/gateway/internal/gateway/ids"
	jsoncodec "github.com/chatwire/gateway/internal/gateway/jsoncodec"
	loggingpkg "github.com/chatwire/gateway/internal/gateway/logging"
	middlewarepkg "github.com/chatwire/gateway/internal/gateway/middleware"
	serverpkg "github.com/chatwire/gateway/internal/gateway/server"
)

type (
	Config             = configpkg.Config
	ConfigurationError = configpkg.ConfigurationError

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	Error      = apierrorpkg.Error
	Kind       = apierrorpkg.Kind
	Serialized = apierrorpkg.Serialized

	Server      = serverpkg.Server
	State       = serverpkg.State
	HandlerFunc = serverpkg.HandlerFunc
	RouteBinder = serverpkg.RouteBinder

	Hub = hubpkg.Hub

	Sessions = middlewarepkg.Sessions
	Values   = middlewarepkg.Values

	Adapter = broadcastpkg.Adapter

	// Bus wiring (import individual backends via, e.g.,
	// _ "github.com/chatwire/gateway/bus/nats").
	BusBuilder  = buspkg.Builder
	BusPair     = buspkg.Pair
	BusRegistry = buspkg.Registry
	BusSettings = buspkg.Settings
)

var (
	LoadConfig = configpkg.Load

	NewServer            = serverpkg.New
	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	NewWatermillAdapter  = loggingpkg.NewWatermillAdapter

	BadRequest      = apierrorpkg.BadRequest
	NotFound        = apierrorpkg.NotFound
	NotAuthorized   = apierrorpkg.NotAuthorized
	PayloadTooLarge = apierrorpkg.PayloadTooLarge

	NewHub        = hubpkg.New
	AttachAdapter = broadcastpkg.Attach

	DefaultBusRegistry = buspkg.DefaultRegistry
	RegisterBus        = buspkg.Register
	ConnectBus         = buspkg.Connect

	Marshal   = jsoncodec.Marshal
	Unmarshal = jsoncodec.Unmarshal
	Encode    = jsoncodec.Encode
	Decode    = jsoncodec.Decode

	NewULID       = idspkg.NewULID
	NewInstanceID = idspkg.NewInstanceID
)

const (
	ListenPort     = serverpkg.ListenPort
	MaxBodyBytes   = middlewarepkg.MaxBodyBytes
	BroadcastTopic = broadcastpkg.Topic
	DevelopmentEnv = configpkg.DevelopmentEnv
)
