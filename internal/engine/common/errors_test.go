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

package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := LifecycleConflict("plan %d is %s", 7, "confirmed")
	assert.ErrorIs(t, err, ErrLifecycleConflict)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "plan 7 is confirmed", err.Error())

	wrapped := fmt.Errorf("submit votes: %w", err)
	assert.ErrorIs(t, wrapped, ErrLifecycleConflict)
	assert.Equal(t, KindLifecycleConflict, KindOf(wrapped))

	// 两个具体错误之间不相等
	assert.NotErrorIs(t, err, LifecycleConflict("other"))
}

func TestWrap(t *testing.T) {
	cause := errors.New("record not found")
	err := Wrap(KindNotFound, cause, "invitation")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invitation: record not found", err.Error())
	assert.Nil(t, Wrap(KindNotFound, nil, "x"))
}

func TestKind_Code(t *testing.T) {
	assert.Equal(t, 4000, KindValidation.Code())
	assert.Equal(t, 4030, KindUnauthorized.Code())
	assert.Equal(t, 4090, KindLifecycleConflict.Code())
	assert.Equal(t, 4004, KindNotFound.Code())
	assert.Equal(t, "lifecycle_conflict", KindLifecycleConflict.String())
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}
