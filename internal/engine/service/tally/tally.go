// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tally

import (
	"context"
	"sort"

	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/internal/engine/repo"
)

/**
 * @file: tally.go
 * @description: 计票，最高票胜出，平票取最小ID
 */

// Result is the outcome of a tally. A nil winner means the dimension had no votes.
type Result struct {
	Date           *uint64          `json:"date,omitempty"`
	Activity       *uint64          `json:"activity,omitempty"`
	DateCounts     map[uint64]int64 `json:"dateCounts"`
	ActivityCounts map[uint64]int64 `json:"activityCounts"`
}

// Calculate counts vote rows per option and picks the winners.
func Calculate(dateVotes []model.DateVote, activityVotes []model.ActivityVote) Result {
	dateCounts := make(map[uint64]int64, len(dateVotes))
	for _, v := range dateVotes {
		dateCounts[v.PlanDateID]++
	}
	activityCounts := make(map[uint64]int64, len(activityVotes))
	for _, v := range activityVotes {
		activityCounts[v.ActivityID]++
	}
	return Result{
		Date:           Winner(dateCounts),
		Activity:       Winner(activityCounts),
		DateCounts:     dateCounts,
		ActivityCounts: activityCounts,
	}
}

// Winner returns the option with the most votes, lowest id on ties.
// Options with zero votes never win.
func Winner(counts map[uint64]int64) *uint64 {
	var (
		best  uint64
		top   int64
		found bool
	)
	for id, n := range counts {
		if n <= 0 {
			continue
		}
		if !found || n > top || (n == top && id < best) {
			best, top, found = id, n, true
		}
	}
	if !found {
		return nil
	}
	return &best
}

// Ranking orders option ids by votes descending then id ascending.
func Ranking(counts map[uint64]int64) []uint64 {
	ids := make([]uint64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Calculator tallies a stored plan. It only reads.
type Calculator struct {
	votes repo.IVoteRepository
}

func NewCalculator(votes repo.IVoteRepository) *Calculator {
	return &Calculator{votes: votes}
}

// Tally loads the plan's vote rows and calculates the result.
func (c *Calculator) Tally(ctx context.Context, planID uint64) (Result, error) {
	dateVotes, err := c.votes.ListDateVotes(ctx, planID)
	if err != nil {
		return Result{}, err
	}
	activityVotes, err := c.votes.ListActivityVotes(ctx, planID)
	if err != nil {
		return Result{}, err
	}
	return Calculate(dateVotes, activityVotes), nil
}
