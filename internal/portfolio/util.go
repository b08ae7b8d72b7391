package portfolio

import "strconv"

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }
