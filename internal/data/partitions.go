package data

import (
    "time"
)

// PartitionName derives the monthly partition name for a record timestamp,
// e.g. PartitionName("bin_levels", 2024-03-15T..) == "bin_levels_2024-03".
func PartitionName(prefix string, t time.Time) string {
    return prefix + "_" + t.Format("2006-01")
}
