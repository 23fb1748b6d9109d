// Package engine implements identifier renumbering.
//
// The engine reassigns the identifiers of every entity of one kind inside a
// group, either by a constant offset or by numbering the entities in the
// order of a sort field. A call runs in fixed phases:
//
//	COUNT -> SNAPSHOT -> ASSIGN_KEYS -> VALIDATE -> APPLY
//
// Everything before APPLY only reads from the collection. A failure there
// leaves the collection untouched. APPLY runs inside one batch bracket of
// the identifier space and resolves conflicts by moving the current holder
// of a wanted identifier to a spare one above every new number. A failure
// during APPLY is fatal: changes already made are not rolled back.
//
// The engine is synchronous and single-threaded per call. It assumes it is
// the only mutator of the collection while a call runs and does not observe
// ctx cancellation once APPLY has started.
package engine
