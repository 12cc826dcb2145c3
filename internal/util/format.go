// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte counter, e.g. "1.2 MB".
func FormatBytes(n uint64) string {
	return humanize.Bytes(n)
}

// FormatRate renders a bytes-per-second gauge, e.g. "3.4 kB/s".
func FormatRate(bps float64) string {
	if bps <= 0 {
		return "0 B/s"
	}
	return humanize.Bytes(uint64(bps)) + "/s"
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n uint64) string {
	return humanize.Comma(int64(n))
}

// FormatTPS renders a tokens-per-second figure with one decimal.
func FormatTPS(tps float64) string {
	return strconv.FormatFloat(tps, 'f', 1, 64)
}

// FormatUnix renders a unix timestamp in local time, or "-" for zero.
func FormatUnix(ts int64) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(ts, 0).Local().Format("2006-01-02 15:04:05")
}

// Ago renders a coarse relative time ("3 minutes ago").
func Ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
