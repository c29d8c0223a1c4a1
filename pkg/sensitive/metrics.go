package sensitive

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "eh_filter"

var (
	textsFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "texts_filtered_total",
		Help:      "Number of non-blank texts passed through the filter.",
	})
	wordsMasked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "words_masked_total",
		Help:      "Number of sensitive word occurrences replaced by the mask token.",
	})
	dictionaryReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "dictionary_reloads_total",
		Help:      "Number of dictionary reload attempts by result.",
	}, []string{"result"})
	dictionaryWords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "dictionary_words",
		Help:      "Number of distinct words in the active dictionary.",
	})
)

// RecordFiltered 记录一次过滤结果，空白文本不计数。
// 命中结果缓存的调用方用它补记指标。
func RecordFiltered(out string, masked int) {
	if out == "" {
		return
	}
	textsFiltered.Inc()
	wordsMasked.Add(float64(masked))
}
