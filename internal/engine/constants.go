package engine

import "github.com/stormchess/storm/internal/board"

// Search-wide constants shared by the worker pool.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// PVTable stores the principal variation collected during a search, one row
// per ply with the triangular truncation (pv[ply] holds plies ply..length-1).
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Pruning/extension toggles. All on by default; kept as named switches
// (rather than inlined booleans) so a future tuning pass can disable one
// technique at a time without touching the search loop itself.
const (
	EnableRazoring        = true
	EnableNMP             = true
	EnableProbcut         = true
	EnableMulticut        = true
	EnableFutilityPruning = true
	EnableSingularExt     = true
	EnableSEEPruning      = true
	EnableLMP             = true
	EnableHistoryPruning  = true
	EnableHindsightDepth  = true
	EnableThreatExt       = true
)

// FutilityDepth and RazorDepth, and their margins, are the search's literal
// depth-pruning knobs: at or below these depths a bad-looking static
// evaluation is trusted instead of searching the node out.
const (
	FutilityDepth           = 6
	futilityMarginPerDepth  = 80
	RazorDepth              = 3
	razorMargin             = 200
)

// CmhPruneDepth bounds the counter-move-history pruning step in the move
// loop: below this depth, quiets whose counter-move history is firmly
// negative are skipped without a search.
const CmhPruneDepth = 3

// Tunables for search extensions/prunings the spec leaves as open
// parameters (ProbCut depth/window, multi-cut knobs, threat-extension
// floor); values are conventional defaults, not spec-mandated constants.
const (
	probcutDepth            = 5
	multicutDepth           = 8
	multicutMoves           = 6
	multicutRequired        = 3
	threatExtensionMinDepth = 4
	historyPruningThreshold = -2000
)

// lmpThreshold[depth] is the move-count cutoff for late-move pruning of
// quiets, indexed by remaining depth (1..7).
var lmpThreshold = [8]int{0, 4, 6, 9, 12, 16, 20, 25}
