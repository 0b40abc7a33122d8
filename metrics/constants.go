package metrics

// Metric names
const (
	MetricNameHTTPRequestsTotal     = "capsulify_http_requests_total"
	MetricNameHTTPRequestDuration   = "capsulify_http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight  = "capsulify_http_requests_in_flight"
	MetricNameOutfitsGenerated      = "capsulify_outfits_generated_total"
	MetricNameOutfitGenerationTime  = "capsulify_outfit_generation_seconds"
	MetricNameOutfitCacheLookups    = "capsulify_outfit_cache_lookups_total"
	MetricNameGarmentExtractions    = "capsulify_garment_extractions_total"
	MetricNameGarmentExtractionTime = "capsulify_garment_extraction_seconds"
	MetricNameStaleUploadsFailed    = "capsulify_stale_uploads_failed_total"
)

const (
	HelpTextHTTPRequestsTotal     = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration   = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight  = "Current number of HTTP requests being served"
	HelpTextOutfitsGenerated      = "Outfits produced by the generator"
	HelpTextOutfitGenerationTime  = "Time spent generating one outfit list"
	HelpTextOutfitCacheLookups    = "Outfit list cache lookups"
	HelpTextGarmentExtractions    = "Garment extraction jobs by outcome"
	HelpTextGarmentExtractionTime = "Time spent in the image model per extraction"
	HelpTextStaleUploadsFailed    = "Uploads marked failed after being stuck in processing"
)

const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelSource    = "source"
	LabelArchetype = "archetype"
	LabelResult    = "result"
	LabelOutcome   = "outcome"
)

// Outfit sources
const (
	SourceWardrobe = "wardrobe"
	SourceUploaded = "uploaded"
)

// Extraction outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRetry     = "retry"
)

var (
	HTTPLatencyBuckets       = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	GenerationLatencyBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5}
	ExtractionLatencyBuckets = []float64{1, 2.5, 5, 10, 20, 40, 80, 160}
)
