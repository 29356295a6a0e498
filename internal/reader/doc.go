// Package reader fetches items of one entity kind from their source of truth and
// merges in the tags the user attached to them.
//
// Every reader follows the same sequence: list ids and core content, then look
// up tags for exactly those ids, then left-join. A failing source fails the read
// with no partial list. A failing tag lookup only degrades: items come back with
// empty tag lists and the listing is marked TagsDegraded.
package reader
