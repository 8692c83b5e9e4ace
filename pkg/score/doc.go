// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package score implements a fixed-point representation of exam scores and
// their conversion into grades through an ordered table of grade bands.
//
// Scores are stored as integers scaled by 10^Precision so that values which
// print identically with one decimal digit also compare equal. A student with
// 10.2 points who is awarded another 0.1 passes a 10.3 threshold regardless of
// how the sum was computed.
package score
