/*
Copyright 2025 Codenotary Inc. All rights reserved.

SPDX-License-Identifier: BUSL-1.1
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	https://mariadb.com/bsl11/

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStack(t *testing.T) {
	s := NewStack[int](2)

	_, ok := s.Pop()
	require.False(t, ok)

	_, ok = s.Peek()
	require.False(t, ok)

	for i := 0; i < 5; i++ {
		s.Push(i)
	}
	require.Equal(t, 5, s.Len())

	top, ok := s.Peek()
	require.True(t, ok)
	require.Equal(t, 4, top)
	require.Equal(t, 5, s.Len())

	for i := 4; i >= 2; i-- {
		e, ok := s.Pop()
		require.True(t, ok)
		require.Equal(t, i, e)
	}
	require.Equal(t, 2, s.Len())

	s.Reset()
	require.Zero(t, s.Len())

	_, ok = s.Pop()
	require.False(t, ok)
}
