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

package multierr

import (
	"errors"
	"strings"
)

// MultiErr collects the errors produced while releasing several resources,
// so that a failure in one of them does not hide the others.
type MultiErr struct {
	errors []error
}

func NewMultiErr() *MultiErr {
	return &MultiErr{}
}

func (me *MultiErr) Append(err error) *MultiErr {
	if err != nil {
		me.errors = append(me.errors, err)
	}
	return me
}

func (me *MultiErr) HasErrors() bool {
	return len(me.errors) > 0
}

func (me *MultiErr) Errors() []error {
	return me.errors
}

// Reduce returns nil when no error was collected, the single error when
// only one was, and the MultiErr itself otherwise.
func (me *MultiErr) Reduce() error {
	switch len(me.errors) {
	case 0:
		return nil
	case 1:
		return me.errors[0]
	}
	return me
}

func (me *MultiErr) Is(target error) bool {
	for _, err := range me.errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (me *MultiErr) As(target interface{}) bool {
	for _, err := range me.errors {
		if errors.As(err, target) {
			return true
		}
	}
	return false
}

func (me *MultiErr) Unwrap() []error {
	return me.errors
}

func (me *MultiErr) Error() string {
	msgs := make([]string, len(me.errors))
	for i, err := range me.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
