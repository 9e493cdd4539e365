// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package core binds the state factory and the deployed protocols into a transactional
// execution surface: every mutating operation runs in a fresh working set and commits
// atomically, or is discarded whole on error.
package core

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/registree/registree-core/account"
	"github.com/registree/registree-core/identity"
	"github.com/registree/registree-core/ledger"
	"github.com/registree/registree-core/pkg/lifecycle"
	"github.com/registree/registree-core/pkg/log"
	"github.com/registree/registree-core/protocol"
)

// EventFunded is emitted when an address is credited out of thin air
const EventFunded = "Funded"

var _operationMtc = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "registree_operations_total",
		Help: "Executed operations by resulting event and status",
	},
	[]string{"event", "status"},
)

func init() {
	prometheus.MustRegister(_operationMtc)
}

// Receipt is the result of a committed operation
type Receipt struct {
	Events []*protocol.Event
}

// Operation mutates ledger state and reports the event it emitted
type Operation func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error)

// Core is the single-writer execution host. Mutations are serialized by one mutex; reads run
// against committed state without locking.
type Core struct {
	mu      sync.Mutex
	lc      lifecycle.Lifecycle
	sf      ledger.Factory
	hub     *protocol.Registry
	chainID common.Hash
}

// New creates a core over the given state factory and protocol hub
func New(sf ledger.Factory, hub *protocol.Registry, chainID uint64) *Core {
	c := &Core{
		sf:      sf,
		hub:     hub,
		chainID: identity.ChainID(chainID),
	}
	c.lc.Add(sf)
	return c
}

// Start starts the underlying state factory
func (c *Core) Start(ctx context.Context) error { return c.lc.OnStart(ctx) }

// Stop stops the underlying state factory
func (c *Core) Stop(ctx context.Context) error { return c.lc.OnStop(ctx) }

// Hub returns the protocol hub
func (c *Core) Hub() *protocol.Registry { return c.hub }

// ChainID returns the 32-byte chain identifier operations run under
func (c *Core) ChainID() common.Hash { return c.chainID }

// Execute runs op as caller with the given attached native value and commits its working
// set. On any error the working set is discarded and no state changes.
func (c *Core) Execute(
	ctx context.Context,
	caller common.Address,
	value *big.Int,
	op Operation,
) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ws, err := c.sf.NewWorkingSet()
	if err != nil {
		return nil, err
	}
	ctx = protocol.WithCallCtx(ctx, protocol.CallCtx{
		Caller:  caller,
		Value:   value,
		ChainID: c.chainID,
	})
	ev, err := op(ctx, ws)
	if err != nil {
		_operationMtc.WithLabelValues("", "failure").Inc()
		return nil, err
	}
	if err := c.sf.Commit(ws); err != nil {
		_operationMtc.WithLabelValues(ev.Name, "failure").Inc()
		return nil, err
	}
	_operationMtc.WithLabelValues(ev.Name, "success").Inc()
	log.L().Debug("Committed operation.",
		zap.String("event", ev.Name),
		zap.String("caller", caller.Hex()))
	return &Receipt{Events: []*protocol.Event{ev}}, nil
}

// View runs fn against committed state
func (c *Core) View(fn func(sr protocol.StateReader) error) error {
	return fn(c.sf)
}

// Fund credits amount of the native asset to addr. It is the genesis/faucet entry point of a
// local ledger, not a protocol operation.
func (c *Core) Fund(ctx context.Context, to common.Address, amount *big.Int) (*Receipt, error) {
	return c.Execute(ctx, to, nil, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
		if err := account.Deposit(sm, to, amount); err != nil {
			return nil, err
		}
		return protocol.NewEvent(EventFunded, common.BytesToHash(to[:])), nil
	})
}

// NativeBalance returns addr's committed native balance
func (c *Core) NativeBalance(addr common.Address) (*big.Int, error) {
	var balance *big.Int
	err := c.View(func(sr protocol.StateReader) error {
		acct, err := account.LoadAccount(sr, addr)
		if err != nil {
			return err
		}
		balance = acct.Balance
		return nil
	})
	return balance, err
}
