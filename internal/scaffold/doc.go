// Package scaffold generates treads projects and agents from embedded
// templates. It powers "treads init" and "treads create agent", producing
// the agents/<name>/ layout (manifest plus helper scripts) that the merge
// engine consumes.
package scaffold
