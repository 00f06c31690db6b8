// Package navigate moves accessibility focus to the next node matching a
// selection.
package navigate

import (
	"context"
	"fmt"

	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/platform"
	"github.com/rs/zerolog"
)

// Options configures a Navigator.
type Options struct {
	Tree    platform.TreeProvider
	Actions platform.ActionPerformer
	Logger  zerolog.Logger
}

// Navigator searches the pre-order node list for a match and requests
// accessibility focus on it.
type Navigator struct {
	tree    platform.TreeProvider
	actions platform.ActionPerformer
	logger  zerolog.Logger
}

func New(opts Options) *Navigator {
	return &Navigator{tree: opts.Tree, actions: opts.Actions, logger: opts.Logger}
}

// Result describes a focus move.
type Result struct {
	Previous  *model.Node `json:"previous,omitempty" yaml:"previous,omitempty"`
	Selected  *model.Node `json:"selected,omitempty" yaml:"selected,omitempty"`
	Moved     bool        `json:"moved"              yaml:"moved"`
	Performed bool        `json:"performed"          yaml:"performed"` // raw result of the focus action
}

// Focus moves accessibility focus to the first node matching sel in dir.
// Without a current focus the search starts at the top of the list. Id and
// text selections always search the whole list. A directional search scans
// strictly after the current focus and leaves focus alone when nothing
// matches.
func (n *Navigator) Focus(ctx context.Context, sel Selection, dir Direction) (Result, error) {
	if err := sel.Validate(); err != nil {
		return Result{}, err
	}
	root, err := n.tree.Root(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read tree: %w", err)
	}
	if root == nil {
		n.logger.Info().Str("selection", sel.String()).Msg("empty tree, nothing to focus")
		return Result{}, nil
	}
	if sel.Unordered() {
		dir = Unordered
	}

	list := model.Flatten(root, dir == Backward)
	pred := sel.Predicate()

	current, hasFocus, err := n.tree.AccessibilityFocus(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("find focus: %w", err)
	}

	res := Result{}
	idx := -1
	switch {
	case !hasFocus:
		idx = model.First(list, 0, pred)
	case dir == Unordered:
		res.Previous = current
		idx = model.First(list, 0, pred)
	default:
		res.Previous = current
		pos := model.IndexOf(list, current.Ref)
		if pos < 0 {
			n.logger.Debug().Str("focus", current.Label()).Msg("focused node not in active window")
		}
		idx = model.First(list, pos+1, pred)
	}

	if idx < 0 {
		n.logger.Info().Str("selection", sel.String()).Str("direction", dir.String()).Msg("no matching node, focus unchanged")
		return res, nil
	}

	target := list[idx]
	ok, err := n.actions.PerformAction(ctx, target.Ref, platform.ActionAccessibilityFocus)
	if err != nil {
		return res, fmt.Errorf("focus %s: %w", target.Label(), err)
	}
	res.Selected = target
	res.Moved = true
	res.Performed = ok
	n.logger.Info().
		Str("selection", sel.String()).
		Str("direction", dir.String()).
		Str("node", target.Label()).
		Bool("res", ok).
		Msg("focus moved")
	return res, nil
}
