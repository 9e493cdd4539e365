// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package lifecycle provides application models' lifecycle management.
package lifecycle

import "context"

// Starter is the interface of a service that can be started.
type Starter interface {
	Start(context.Context) error
}

// Stopper is the interface of a service that can be stopped.
type Stopper interface {
	Stop(context.Context) error
}

// StartStopper is the interface of a service that can be started and stopped.
type StartStopper interface {
	Starter
	Stopper
}

// Lifecycle manages the lifecycle of a group of models. Models are started in the order they
// were added and stopped in the reverse order.
type Lifecycle struct {
	models []StartStopper
}

// Add adds a model into the lifecycle.
func (lc *Lifecycle) Add(m StartStopper) { lc.models = append(lc.models, m) }

// AddModels adds multiple models into the lifecycle.
func (lc *Lifecycle) AddModels(ms ...StartStopper) {
	for _, m := range ms {
		lc.Add(m)
	}
}

// OnStart starts all models added to the lifecycle.
func (lc *Lifecycle) OnStart(ctx context.Context) error {
	for _, m := range lc.models {
		if err := m.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// OnStop stops all models added to the lifecycle in reverse order.
func (lc *Lifecycle) OnStop(ctx context.Context) error {
	for i := len(lc.models) - 1; i >= 0; i-- {
		if err := lc.models[i].Stop(ctx); err != nil {
			return err
		}
	}
	return nil
}
