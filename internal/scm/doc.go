// Package scm collects per-line blame information for the files of an
// analysis.
//
// A BlameOutput is created with the files expected to be blamed. A blame
// producer such as GitBlamer reports each file with BlameResult; Finish then
// raises a single analysis warning for the files left without blame.
package scm
