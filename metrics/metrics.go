package metrics

import (
	"strconv"
	"time"

	"capsulifyapi/outfits"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Outfit Metrics
var (
	OutfitsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameOutfitsGenerated,
			Help: HelpTextOutfitsGenerated,
		},
		[]string{LabelSource, LabelArchetype},
	)

	OutfitGenerationTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameOutfitGenerationTime,
			Help:    HelpTextOutfitGenerationTime,
			Buckets: GenerationLatencyBuckets,
		},
		[]string{LabelSource},
	)

	OutfitCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameOutfitCacheLookups,
			Help: HelpTextOutfitCacheLookups,
		},
		[]string{LabelSource, LabelResult},
	)
)

// Worker Metrics
var (
	GarmentExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameGarmentExtractions,
			Help: HelpTextGarmentExtractions,
		},
		[]string{LabelOutcome},
	)

	GarmentExtractionTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameGarmentExtractionTime,
			Help:    HelpTextGarmentExtractionTime,
			Buckets: ExtractionLatencyBuckets,
		},
	)

	StaleUploadsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameStaleUploadsFailed,
			Help: HelpTextStaleUploadsFailed,
		},
	)
)

// ObserveGeneration records one generator run over source.
func ObserveGeneration[T outfits.Item](source string, started time.Time, list []outfits.Outfit[T]) {
	OutfitGenerationTime.WithLabelValues(source).Observe(time.Since(started).Seconds())
	perArchetype := make(map[outfits.ArchetypeID]int)
	for _, o := range list {
		perArchetype[o.ArchetypeID]++
	}
	for id, n := range perArchetype {
		OutfitsGenerated.WithLabelValues(source, strconv.Itoa(int(id))).Add(float64(n))
	}
}

// ObserveCacheLookup counts a hit or a miss of the outfit cache.
func ObserveCacheLookup(source string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	OutfitCacheLookups.WithLabelValues(source, result).Inc()
}
