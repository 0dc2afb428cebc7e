// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package l2pop

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/contiv/l2pop/plugins/l2pop/fdb"
	"github.com/contiv/l2pop/plugins/l2pop/rpc"
	"github.com/contiv/l2pop/plugins/statscollector"
)

// netLocks serializes processing of events per network.
type netLocks struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}

func newNetLocks() *netLocks {
	return &netLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the lock of the network and returns the function to release it.
func (nl *netLocks) lock(networkID string) (unlock func()) {
	nl.Lock()
	lock, exists := nl.locks[networkID]
	if !exists {
		lock = &sync.Mutex{}
		nl.locks[networkID] = lock
	}
	nl.Unlock()

	lock.Lock()
	return lock.Unlock
}

// syncOptions customize synchronization of one network.
type syncOptions struct {
	// exclude leaves out ports of the host as if its agent was gone
	exclude string

	// prime forces unicast of the complete FDB to the host
	prime string

	// update is applied to the store under the network lock before
	// the new view is computed
	update func() error
}

// syncNetwork recomputes the view of the network, replaces the stored one
// and notifies agents about the difference.
func (p *L2Pop) syncNetwork(networkID string, opts syncOptions) error {
	unlock := p.netLocks.lock(networkID)
	defer unlock()

	if opts.update != nil {
		if err := opts.update(); err != nil {
			return err
		}
	}

	next, err := p.aggregator.ComputeAgentFDB(networkID, opts.exclude)
	if err == fdb.ErrUnknownNetwork {
		p.Log.Debugf("Network %s is not known, dropping its FDB", networkID)
		p.storeView(networkID, nil)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to compute FDB of network %s", networkID)
	}
	if !fdb.SupportsPopulation(next.NetworkType) {
		p.Log.Debugf("Network %s of type '%s' is not populated", networkID, next.NetworkType)
		p.storeView(networkID, nil)
		return nil
	}

	prev := p.getView(networkID)
	if prev == nil {
		prev = fdb.NewView(next.NetworkID, next.NetworkType, next.SegmentID)
	}
	p.storeView(networkID, next)

	var errs []error

	// prime newly participating and restarted agents
	for _, host := range next.Hosts() {
		if prev.HasHost(host) && host != opts.prime {
			continue
		}
		entries := next.Exclude(host).FDB()
		if len(entries) == 0 {
			continue
		}
		errs = append(errs, p.unicast(host, next.NewDelta(entries, nil)))
	}

	if prev.AgentCount() < 2 && next.AgentCount() < 2 {
		return p.combineErrors(networkID, errs)
	}

	add, remove := fdb.Diff(prev.FDB(), next.FDB())
	departed := remove.Filter(func(ip string) bool { return !next.HasTunnelIP(ip) })
	surviving := remove.Filter(next.HasTunnelIP)
	for _, delta := range []*fdb.Delta{
		next.NewDelta(nil, departed),
		next.NewDelta(nil, surviving),
		next.NewDelta(add, nil),
	} {
		if delta.IsEmpty() {
			continue
		}
		errs = append(errs, p.broadcast(delta))
	}
	return p.combineErrors(networkID, errs)
}

// syncNetworks synchronizes networks one by one, continuing after failures.
// Failed deliveries are merged into a single DeliveryError unless some network
// failed for another reason, in which case the first such error is returned.
func (p *L2Pop) syncNetworks(networkIDs []string, opts syncOptions) error {
	var (
		errs    []error
		failure error
	)
	for _, networkID := range networkIDs {
		if err := p.syncNetwork(networkID, opts); err != nil {
			p.Log.Warnf("Synchronization of network %s failed: %v", networkID, err)
			errs = append(errs, err)
			if failure == nil && !rpc.IsDeliveryError(err) {
				failure = err
			}
		}
	}
	switch {
	case len(errs) == 0:
		return nil
	case len(errs) == 1:
		return errs[0]
	case failure != nil:
		return errors.Wrapf(failure, "%d of %d networks failed to synchronize", len(errs), len(networkIDs))
	}
	return rpc.CombineErrors(errs...)
}

func (p *L2Pop) unicast(host string, delta *fdb.Delta) error {
	p.Log.Infof("Unicast to %s: %v", host, delta)
	err := p.notifier.Unicast(host, delta)
	p.countNotification(delta, statscollector.CastUnicast, err)
	return err
}

func (p *L2Pop) broadcast(delta *fdb.Delta) error {
	p.Log.Infof("Broadcast: %v", delta)
	err := p.notifier.Broadcast(delta)
	p.countNotification(delta, statscollector.CastBroadcast, err)
	return err
}

func (p *L2Pop) countNotification(delta *fdb.Delta, cast string, err error) {
	if err != nil {
		p.Log.Warnf("Failed to deliver %s notification for network %s: %v", cast, delta.NetworkID, err)
	}
	if p.Stats == nil {
		return
	}
	if len(delta.Remove) > 0 {
		p.Stats.CountNotification(rpc.RemoveFDBEntries, cast)
	}
	if len(delta.Add) > 0 {
		p.Stats.CountNotification(rpc.AddFDBEntries, cast)
	}
	if err != nil {
		p.Stats.CountDeliveryError(cast)
	}
}

func (p *L2Pop) combineErrors(networkID string, errs []error) error {
	if err := rpc.CombineErrors(errs...); err != nil {
		return errors.Wrapf(err, "network %s", networkID)
	}
	return nil
}

// sortedIDs returns the union of the given ID lists, sorted and deduplicated.
func sortedIDs(lists ...[]string) []string {
	set := map[string]struct{}{}
	for _, list := range lists {
		for _, id := range list {
			set[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
