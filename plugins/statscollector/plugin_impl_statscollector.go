// Copyright (c) 2018 Cisco and/or its affiliates.
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

package statscollector

import (
	"sort"
	"sync"
	"time"

	"github.com/ligato/cn-infra/infra"
	prometheusplugin "github.com/ligato/cn-infra/rpc/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const (
	// path where the statistics are exposed
	prometheusStatsPath = "/l2pop/stats"

	methodLabel = "method"
	castLabel   = "cast"

	notificationsMetric  = "l2pop_notifications_total"
	deliveryErrorsMetric = "l2pop_delivery_errors_total"

	printStatsPeriod = time.Minute
)

// Plugin collects statistics of the L2 population notifications and
// publishes them to prometheus.
type Plugin struct {
	Deps
	sync.Mutex
	notifications  *prometheus.CounterVec
	deliveryErrors *prometheus.CounterVec
	gauges         map[string]prometheus.GaugeFunc
	closeCh        chan interface{}
}

// Deps groups the dependencies of the Plugin.
type Deps struct {
	infra.PluginDeps

	// Prometheus plugin used to stream statistics
	Prometheus prometheusplugin.API
}

// Init initializes the plugin resources
func (p *Plugin) Init() error {
	p.closeCh = make(chan interface{})
	p.gauges = map[string]prometheus.GaugeFunc{}

	p.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: notificationsMetric,
		Help: "Number of FDB notifications sent to agents",
	}, []string{methodLabel, castLabel})
	p.deliveryErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: deliveryErrorsMetric,
		Help: "Number of FDB notifications that failed to be delivered",
	}, []string{castLabel})

	if p.Prometheus != nil {
		// create new registry for statistics
		err := p.Prometheus.NewRegistry(prometheusStatsPath, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError, ErrorLog: p.Log})
		if err != nil {
			return err
		}

		// register created vectors to prometheus
		for name, metric := range map[string]prometheus.Collector{
			notificationsMetric:  p.notifications,
			deliveryErrorsMetric: p.deliveryErrors,
		} {
			err = p.Prometheus.Register(prometheusStatsPath, metric)
			if err != nil {
				p.Log.Errorf("failed to register %v metric %v", name, err)
				return err
			}
		}
	}

	return nil
}

// AfterInit starts periodic dumps of the statistics to the log.
func (p *Plugin) AfterInit() error {
	go p.PrintStats()
	return nil
}

// Close cleans up the plugin resources
func (p *Plugin) Close() error {
	close(p.closeCh)
	return nil
}

// RegisterGaugeFunc registers a new gauge with specific name, help string and valueFunc to report status when invoked.
func (p *Plugin) RegisterGaugeFunc(name string, help string, valueFunc func() float64) {
	p.Lock()
	defer p.Unlock()

	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, valueFunc)
	p.gauges[name] = gauge
	if p.Prometheus != nil {
		if err := p.Prometheus.Register(prometheusStatsPath, gauge); err != nil {
			p.Log.Errorf("failed to register %v gauge %v", name, err)
		}
	}
}

// CountNotification increments the number of sent notifications.
func (p *Plugin) CountNotification(method, cast string) {
	p.notifications.With(prometheus.Labels{methodLabel: method, castLabel: cast}).Inc()
}

// CountDeliveryError increments the number of failed deliveries.
func (p *Plugin) CountDeliveryError(cast string) {
	p.deliveryErrors.With(prometheus.Labels{castLabel: cast}).Inc()
}

// NotificationCount returns the number of notifications sent so far.
func (p *Plugin) NotificationCount(method, cast string) float64 {
	return counterValue(p.notifications.With(prometheus.Labels{methodLabel: method, castLabel: cast}))
}

// DeliveryErrorCount returns the number of failed deliveries so far.
func (p *Plugin) DeliveryErrorCount(cast string) float64 {
	return counterValue(p.deliveryErrors.With(prometheus.Labels{castLabel: cast}))
}

// GaugeValue returns the current value of a registered gauge.
func (p *Plugin) GaugeValue(name string) (value float64, found bool) {
	p.Lock()
	gauge, found := p.gauges[name]
	p.Unlock()
	if !found {
		return 0, false
	}
	metric := &dto.Metric{}
	if err := gauge.Write(metric); err != nil {
		return 0, false
	}
	return metric.GetGauge().GetValue(), true
}

// PrintStats periodically dumps stats to log
func (p *Plugin) PrintStats() {
	for {
		select {
		case <-p.closeCh:
			return
		case <-time.After(printStatsPeriod):
			for _, cast := range []string{CastUnicast, CastBroadcast} {
				p.Log.Debugf("%s: add %v, remove %v, failed %v", cast,
					p.NotificationCount("add_fdb_entries", cast),
					p.NotificationCount("remove_fdb_entries", cast),
					p.DeliveryErrorCount(cast))
			}
			p.Lock()
			var names []string
			for name := range p.gauges {
				names = append(names, name)
			}
			p.Unlock()
			sort.Strings(names)
			for _, name := range names {
				value, _ := p.GaugeValue(name)
				p.Log.Debugf("%s: %v", name, value)
			}
		}
	}
}

func counterValue(counter prometheus.Counter) float64 {
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}
