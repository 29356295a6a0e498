// Package listcache holds the state of one paged list view: which mode it is in,
// the page-token cursor chain, an id-to-item cache and the user's selection.
//
// A View is owned by one view session and passed explicitly to whoever loads it.
// Loads run outside the view lock and commit under it: a load that fails, or that
// was overtaken by a newer load, writes nothing. Only ids missing from the cache
// are handed to the loader for detail fetches, so revisiting a page or merging
// search and filter results never re-fetches a known item.
package listcache
