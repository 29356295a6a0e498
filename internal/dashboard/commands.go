package dashboard

import (
	"context"

	"github.com/teemow/tagdeck/internal/listcache"
	"github.com/teemow/tagdeck/internal/logging"
	"github.com/teemow/tagdeck/internal/reader"
)

// command is an optimistic mutation of one email. The target state is decided
// once, before the command runs, and never recomputed from the cache.
type command struct {
	name    string
	emailID string
	// apply patches a cached copy to the expected post-mutation state.
	apply func(e *reader.Email)
	// undo reverses apply alone. pre is the copy apply saw; anything else that
	// changed on e since then is left in place.
	undo func(e *reader.Email, pre reader.Email)
	// commit performs the store or Gmail write.
	commit func(ctx context.Context) error
}

// execute applies cmd to every cached copy of the email across views, commits
// it, and on failure runs cmd.undo on each copy it patched.
func (s *Service) execute(ctx context.Context, views []*listcache.View[reader.Email], cmd command) error {
	type patched struct {
		view *listcache.View[reader.Email]
		pre  reader.Email
	}

	var done []patched
	for _, v := range views {
		pre, ok := v.Get(cmd.emailID)
		if !ok {
			continue
		}
		pre.Tags = cloneTags(pre.Tags)
		pre.LabelIDs = append([]string(nil), pre.LabelIDs...)
		v.Patch(cmd.emailID, cmd.apply)
		done = append(done, patched{view: v, pre: pre})
	}

	if err := cmd.commit(ctx); err != nil {
		for _, p := range done {
			p.view.Patch(cmd.emailID, func(e *reader.Email) { cmd.undo(e, p.pre) })
		}
		s.logger.WarnContext(ctx, "optimistic update rolled back",
			logging.Operation(cmd.name),
			logging.Count(len(done)),
			logging.Err(err))
		return err
	}
	return nil
}
