/*
Copyright 2025 Codenotary Inc. All rights reserved.

SPDX-License-Identifier: BUSL-1.1
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	https://mariadb.com/bsl11/

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type TreeMetrics interface {
	SetNodesSavedLastCycle(n int)
	SetKeyCount(n uint64)
	SetUpdateCounter(n uint64)
	SetRootPos(pos uint64)
	IncRecordsWritten(kind string)
	AddBytesAppended(n int)
	SetCacheSize(size int)
	IncCacheHits()
	IncCacheMisses()
	IncCacheEvictions()
}

var (
	metricsNodesSavedLastCycle = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "treebase_pbtree_nodes_saved_last_cycle",
		Help: "Number of nodes and leaves appended to the log during the last save",
	}, []string{"tree_id"})

	metricsKeyCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "treebase_pbtree_keys",
		Help: "Number of live keys stored in the tree",
	}, []string{"tree_id"})

	metricsUpdateCounter = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "treebase_pbtree_update_counter",
		Help: "Current generation of the tree",
	}, []string{"tree_id"})

	metricsRootPos = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "treebase_pbtree_root_offset",
		Help: "Offset of the last saved root record",
	}, []string{"tree_id"})

	metricsRecordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treebase_pbtree_records_written_total",
		Help: "Number of records appended to the log, by kind",
	}, []string{"tree_id", "kind"})

	metricsBytesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treebase_pbtree_bytes_appended_total",
		Help: "Number of bytes appended to the log",
	}, []string{"tree_id"})

	metricsCacheSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "treebase_pbtree_cache_size",
		Help: "Maximum number of clean nodes kept in memory",
	}, []string{"tree_id"})

	metricsCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treebase_pbtree_cache_hits_total",
		Help: "Number of node loads served from the cache",
	}, []string{"tree_id"})

	metricsCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treebase_pbtree_cache_misses_total",
		Help: "Number of node loads decoded from the log",
	}, []string{"tree_id"})

	metricsCacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treebase_pbtree_cache_evictions_total",
		Help: "Number of clean nodes dropped from memory",
	}, []string{"tree_id"})
)

var (
	_ TreeMetrics = &prometheusTreeMetrics{}
	_ TreeMetrics = &nopTreeMetrics{}
)

type prometheusTreeMetrics struct {
	treeID string
}

func NewPrometheusTreeMetrics(treeID string) TreeMetrics {
	return &prometheusTreeMetrics{
		treeID: treeID,
	}
}

func (m *prometheusTreeMetrics) SetNodesSavedLastCycle(n int) {
	metricsNodesSavedLastCycle.WithLabelValues(m.treeID).Set(float64(n))
}

func (m *prometheusTreeMetrics) SetKeyCount(n uint64) {
	metricsKeyCount.WithLabelValues(m.treeID).Set(float64(n))
}

func (m *prometheusTreeMetrics) SetUpdateCounter(n uint64) {
	metricsUpdateCounter.WithLabelValues(m.treeID).Set(float64(n))
}

func (m *prometheusTreeMetrics) SetRootPos(pos uint64) {
	metricsRootPos.WithLabelValues(m.treeID).Set(float64(pos))
}

func (m *prometheusTreeMetrics) IncRecordsWritten(kind string) {
	metricsRecordsWritten.WithLabelValues(m.treeID, kind).Inc()
}

func (m *prometheusTreeMetrics) AddBytesAppended(n int) {
	metricsBytesAppended.WithLabelValues(m.treeID).Add(float64(n))
}

func (m *prometheusTreeMetrics) SetCacheSize(size int) {
	metricsCacheSize.WithLabelValues(m.treeID).Set(float64(size))
}

func (m *prometheusTreeMetrics) IncCacheHits() {
	metricsCacheHits.WithLabelValues(m.treeID).Inc()
}

func (m *prometheusTreeMetrics) IncCacheMisses() {
	metricsCacheMisses.WithLabelValues(m.treeID).Inc()
}

func (m *prometheusTreeMetrics) IncCacheEvictions() {
	metricsCacheEvictions.WithLabelValues(m.treeID).Inc()
}

type nopTreeMetrics struct {
}

func NewNopTreeMetrics() TreeMetrics {
	return &nopTreeMetrics{}
}

func (m *nopTreeMetrics) SetNodesSavedLastCycle(n int) {
}

func (m *nopTreeMetrics) SetKeyCount(n uint64) {
}

func (m *nopTreeMetrics) SetUpdateCounter(n uint64) {
}

func (m *nopTreeMetrics) SetRootPos(pos uint64) {
}

func (m *nopTreeMetrics) IncRecordsWritten(kind string) {
}

func (m *nopTreeMetrics) AddBytesAppended(n int) {
}

func (m *nopTreeMetrics) SetCacheSize(size int) {
}

func (m *nopTreeMetrics) IncCacheHits() {
}

func (m *nopTreeMetrics) IncCacheMisses() {
}

func (m *nopTreeMetrics) IncCacheEvictions() {
}
