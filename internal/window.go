package internal

import "math/rand/v2"

// Context is one training example: a center entry and the entries around it.
type Context struct {
	Center *Entry
	Window []*Entry
	Size   int
}

type WindowOptions struct {
	Before int
	After  int
	// Random shrinks each side to a uniform draw from [1, side]. Equal sides
	// share a single draw.
	Random      bool
	IncludeSelf bool
	// Paragraph, when set, is prepended to the window, or used as the center
	// when ParagraphAsCenter is true.
	Paragraph         *Entry
	ParagraphAsCenter bool
}

// BuildWindow fills ctx for position pos of line. ctx.Window is reused, so
// each goroutine needs its own Context and generator.
func BuildWindow(ctx *Context, line []*Entry, pos int, opts WindowOptions, r *rand.Rand) {
	before, after := opts.Before, opts.After
	if opts.Random {
		switch {
		case before == after && before > 0:
			before = 1 + r.IntN(before)
			after = before
		default:
			if before > 0 {
				before = 1 + r.IntN(before)
			}
			if after > 0 {
				after = 1 + r.IntN(after)
			}
		}
	}

	lo := max(0, pos-before)
	hi := min(len(line)-1, pos+after)

	ctx.Center = line[pos]
	ctx.Window = ctx.Window[:0]

	if opts.Paragraph != nil {
		if opts.ParagraphAsCenter {
			ctx.Center = opts.Paragraph
		} else {
			ctx.Window = append(ctx.Window, opts.Paragraph)
		}
	}

	for i := lo; i <= hi; i++ {
		if i == pos && !opts.IncludeSelf {
			continue
		}
		ctx.Window = append(ctx.Window, line[i])
	}
	ctx.Size = len(ctx.Window)
}
