// Package preflight provides readiness checks for the filesystem trees and
// external tools footage depends on.
//
// The plan and transfer commands run RunAll before touching anything; the
// transfer executor uses CheckFreeSpace before copying. The CLI "footage
// status" and "footage deps" commands display the same results.
package preflight
