// Package aggregate merges every agent's nanobot manifest into the single
// project-wide manifest consumed by the agent runtime. It discovers agent
// directories, rewrites relative helper-script paths so the merged file works
// from the project root, deduplicates published capabilities, and selects the
// project entrypoint.
package aggregate
