// Package domain models social media incident reports and their per-location
// aggregation.
//
// # Data Source
//
// Reports come from an upstream classifier that reads posts from Twitter,
// Reddit and Facebook, tags each batch with an incident type, a need-category
// breakdown and an intensity, and publishes one flat JSON record per batch to
// the Kafka source topic. In development the same records are produced by the
// in-process mock generator (package reportgen).
//
// # Report Conventions
//
// Location:
//
//	"subLocation" names the area inside a district, e.g. "Adyar" in Chennai.
//	It is the grouping key. Records without one are grouped under "Unknown".
//	"location" carries {"lat", "long"}; (0, 0) means not geocoded.
//
// Volume:
//
//	"reportCount" is the number of posts the record stands for (>= 1). Every
//	total and average in this package is weighted by it.
//
// Needs:
//
//	"categoryCounts" maps Food, Medical, Rescue, Water, Shelter and
//	Infrastructure to the number of posts asking for each.
//
// # Intensity Classification
//
// Each record's intensity weighs low=1, medium=2, high=3. Anything else weighs 1.
// A location's score is the reportCount-weighted mean of those weights:
//
//	score >= 2.5 high | score >= 1.5 medium | otherwise low
//
// Both thresholds are closed lower bounds: exactly 2.5 is high and exactly 1.5
// is medium. See [Aggregate] and [ClassifyIntensity].
//
// # Recomputation
//
// Aggregated locations are never patched. Whenever the report set changes the
// whole set is aggregated again ([NewSnapshot]); the output has no identity
// beyond the pass that produced it.
package domain
