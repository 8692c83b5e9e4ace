// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package results loads delimited exam result files into ordered maps keyed
// by student identifier.
//
// Three shapes are supported: one score per student (LoadScores), raw
// columns per student (LoadRows) and header-named records (LoadRecords).
// All of them keep the row order of the file. When a key repeats, the last
// row wins but the key keeps the position of its first appearance.
package results
