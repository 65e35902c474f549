package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/spf13/cobra"

	"github.com/pavanmanishd/emplace"
)

func newLayoutCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "layout LAYOUT...",
		Short: "Print the layout of headers nested around a tail",
		Long: `Each LAYOUT is size:align or size:align*count. The last LAYOUT is the
innermost tail; each earlier one is a header placed in front of everything
after it. For every level the tail offset and padded combined layout are
printed, outermost first.`,
		Example: "  emplace layout 16:8 4:4*100\n  emplace layout 8:8 2:2 1:1*7 --format json",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := checkFormat(format)
			if err != nil {
				return err
			}
			layouts := make([]emplace.Layout, len(args))
			for i, a := range args {
				if layouts[i], err = parseLayoutArg(a); err != nil {
					return err
				}
			}
			chain, err := extendChain(layouts)
			if err != nil {
				return err
			}
			if f == formatText {
				printChain(cmd.OutOrStdout(), chain)
				return nil
			}
			return encode(cmd.OutOrStdout(), f, chain)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatText, "output format (text|json|msgpack)")
	return cmd
}

// parseLayoutArg reads size:align or size:align*count.
func parseLayoutArg(s string) (emplace.Layout, error) {
	base, countStr, repeated := strings.Cut(s, "*")
	sizeStr, alignStr, ok := strings.Cut(base, ":")
	if !ok {
		return emplace.Layout{}, fmt.Errorf("layout %q: want size:align or size:align*count", s)
	}
	size, err := strconv.ParseUint(sizeStr, 0, strconv.IntSize)
	if err != nil {
		return emplace.Layout{}, fmt.Errorf("layout %q: size: %w", s, err)
	}
	align, err := strconv.ParseUint(alignStr, 0, strconv.IntSize)
	if err != nil {
		return emplace.Layout{}, fmt.Errorf("layout %q: align: %w", s, err)
	}
	l, err := emplace.NewLayout(uintptr(size), uintptr(align))
	if err != nil {
		return emplace.Layout{}, fmt.Errorf("layout %q: %w", s, err)
	}
	if !repeated {
		return l, nil
	}
	c, err := strconv.ParseInt(countStr, 0, 64)
	if err != nil {
		return emplace.Layout{}, fmt.Errorf("layout %q: count: %w", s, err)
	}
	count, err := safecast.Conv[int](c)
	if err != nil {
		return emplace.Layout{}, fmt.Errorf("layout %q: count: %w", s, err)
	}
	if l, err = l.Repeat(count); err != nil {
		return emplace.Layout{}, fmt.Errorf("layout %q: %w", s, err)
	}
	return l, nil
}

// level is one header/tail step of a chain.
type level struct {
	Depth       int    `json:"depth" msgpack:"depth"`
	HeaderSize  uint64 `json:"header_size" msgpack:"header_size"`
	HeaderAlign uint64 `json:"header_align" msgpack:"header_align"`
	TailSize    uint64 `json:"tail_size" msgpack:"tail_size"`
	TailAlign   uint64 `json:"tail_align" msgpack:"tail_align"`
	TailOffset  uint64 `json:"tail_offset" msgpack:"tail_offset"`
	Size        uint64 `json:"size" msgpack:"size"`
	Align       uint64 `json:"align" msgpack:"align"`
}

// extendChain folds layouts from the innermost outwards and returns the
// levels outermost first. A single layout yields one level with no tail.
func extendChain(layouts []emplace.Layout) ([]level, error) {
	last := layouts[len(layouts)-1]
	if len(layouts) == 1 {
		return []level{{
			HeaderSize: uint64(last.Size()), HeaderAlign: uint64(last.Align()),
			TailOffset: uint64(last.Size()),
			Size:       uint64(last.Size()), Align: uint64(last.Align()),
		}}, nil
	}
	levels := make([]level, len(layouts)-1)
	acc := last
	for i := len(layouts) - 2; i >= 0; i-- {
		h := layouts[i]
		whole, off, err := h.Extend(acc)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
		levels[i] = level{
			Depth:      i,
			HeaderSize: uint64(h.Size()), HeaderAlign: uint64(h.Align()),
			TailSize: uint64(acc.Size()), TailAlign: uint64(acc.Align()),
			TailOffset: uint64(off),
			Size:       uint64(whole.Size()), Align: uint64(whole.Align()),
		}
		acc = whole
	}
	return levels, nil
}

func printChain(w io.Writer, levels []level) {
	for _, lv := range levels {
		labelColor.Fprintf(w, "level %d\n", lv.Depth)
		field(w, "  header", "size %d, align %d", lv.HeaderSize, lv.HeaderAlign)
		if lv.TailSize != 0 || lv.TailAlign != 0 {
			field(w, "  tail", "size %d, align %d at offset %d", lv.TailSize, lv.TailAlign, lv.TailOffset)
		}
		field(w, "  combined", "size %d, align %d", lv.Size, lv.Align)
		if pad := lv.Size - lv.HeaderSize - lv.TailSize; pad > 0 {
			warnColor.Fprintf(w, "  %d bytes of padding\n", pad)
		}
	}
}
