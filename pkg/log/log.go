// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package log provides the global loggers used across the ledger core. It wraps zap loggers
// and supports optional ECS (Elastic Common Schema) log encoding.
package log

import (
	"log"
	"sync"

	"github.com/pkg/errors"
	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GlobalConfig defines the global logger configurations.
type GlobalConfig struct {
	Zap                *zap.Config `json:"zap" yaml:"zap"`
	StderrRedirectFile *string     `json:"stderrRedirectFile" yaml:"stderrRedirectFile"`
	RedirectStdLog     bool        `json:"stdLogRedirect" yaml:"stdLogRedirect"`
	EcsIntegration     bool        `json:"ecsIntegration" yaml:"ecsIntegration"`
}

var (
	_logMu      sync.RWMutex
	_globalCfg  GlobalConfig
	_subLoggers map[string]*zap.Logger
)

func init() {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zapCfg.Level.SetLevel(zap.InfoLevel)
	l, err := zapCfg.Build()
	if err != nil {
		log.Println("Failed to init zap global logger, no zap log will be shown till zap is properly initialized: ", err)
		return
	}
	_globalCfg.Zap = &zapCfg
	_subLoggers = make(map[string]*zap.Logger)
	zap.ReplaceGlobals(l)
}

// L wraps zap.L().
func L() *zap.Logger { return zap.L() }

// S wraps zap.S().
func S() *zap.SugaredLogger { return zap.S() }

// Logger returns the sub logger of the given name, falling back to the global logger.
func Logger(name string) *zap.Logger {
	_logMu.RLock()
	defer _logMu.RUnlock()
	logger, ok := _subLoggers[name]
	if !ok {
		return L()
	}
	return logger
}

// InitLoggers initializes the global logger and the named sub loggers.
func InitLoggers(globalCfg GlobalConfig, subCfgs map[string]GlobalConfig) error {
	if subCfgs == nil {
		subCfgs = make(map[string]GlobalConfig)
	}
	if _, exists := subCfgs[""]; exists {
		return errors.New("empty string is a reserved name for the global logger")
	}
	subCfgs[""] = globalCfg
	for name, cfg := range subCfgs {
		logger, err := newLogger(cfg)
		if err != nil {
			return errors.Wrapf(err, "failed to build logger %q", name)
		}
		_logMu.Lock()
		if name == "" {
			_globalCfg = cfg
			if cfg.RedirectStdLog {
				zap.RedirectStdLog(logger)
			}
			zap.ReplaceGlobals(logger)
		} else {
			_subLoggers[name] = logger
		}
		_logMu.Unlock()
	}
	return nil
}

func newLogger(cfg GlobalConfig) (*zap.Logger, error) {
	if cfg.Zap == nil {
		zapCfg := zap.NewProductionConfig()
		cfg.Zap = &zapCfg
	}
	if cfg.StderrRedirectFile != nil {
		cfg.Zap.OutputPaths = append(cfg.Zap.OutputPaths, *cfg.StderrRedirectFile)
	}
	if !cfg.EcsIntegration {
		return cfg.Zap.Build()
	}
	sink, _, err := zap.Open(cfg.Zap.OutputPaths...)
	if err != nil {
		return nil, err
	}
	core := ecszap.NewCore(ecszap.NewDefaultEncoderConfig(), sink, cfg.Zap.Level)
	return zap.New(core, zap.AddCaller()), nil
}
