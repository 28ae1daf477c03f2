// Package retrieval merges independently scored search results into a
// single ranked list and summarises that list for faceted refinement.
//
// Everything here is a pure function over in-memory values. Network
// calls to lexical and vector backends happen in the search service; by
// the time hits reach this package they are plain slices.
package retrieval
