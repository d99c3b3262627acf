// Package domain models USGS ComCat (Comprehensive Earthquake Catalog) event
// data and implements the pure core of the client: search query construction,
// time-segmented search planning, and product version resolution.
//
// # Data Source
//
// Events come from the ANSS Comprehensive Earthquake Catalog web API at
// https://earthquake.usgs.gov/fdsnws/event/1/. Searches return GeoJSON
// FeatureCollections of summary events; per-event detail documents are
// GeoJSON Features whose properties carry a "products" map of every
// sub-product submission (origins, moment tensors, shakemaps, PAGER loss
// estimates, and so on) contributed by the regional seismic networks.
//
// # ComCat Data Conventions
//
// Times:
//
//	Event and product update times are epoch milliseconds in the JSON.
//	Query parameters use ISO 8601 at second precision adjusted to UTC.
//
// Coordinates:
//
//	GeoJSON geometry coordinates are [longitude, latitude, depth-km].
//	Bounding boxes that straddle the antimeridian are expressed to the
//	server by adding 360 to the eastern longitude so min < max holds.
//
// Products:
//
//	Each product submission names a contributing network ("us", "nc",
//	"ak", ...), an update time, and a preferredWeight. Higher weight means
//	more authoritative among submissions of the same type; this mirrors
//	the ordering logic the USGS event pages use. Submissions whose status
//	is "DELETE" are retractions and are invisible to version resolution.
//	Product property values are served as strings regardless of type;
//	typed accessors in this package convert the well-known ones.
//
// Version numbering:
//
//	ComCat does not serve version numbers. [ResolveProducts] reconstructs
//	them per source by ordering each source's surviving submissions by
//	update time and numbering them 1..N. The numbering is recomputed on
//	every call; determinism, not object identity, is the contract.
//
// # Search Limits
//
// The server caps any single query at 20,000 events. [Planner] splits long
// time windows into segments sized from an empirical events-per-day table
// ([DefaultEventRates]) so no sub-query is expected to hit the cap.
package domain
